// Package depgraph tracks, for each referenced cell, the set of code
// cells whose last successful evaluation read it — spec §4.7
// "Dependency graph": `dependencies: Map<CellRef, Set<CellRef>>`.
//
// The hot-path structure is a plain map (update_dependent_cells must be
// O(changed deps), not O(graph)); a github.com/katalvlaran/lvlath
// core.Graph mirror is built from it on demand, purely for diagnostics —
// CheckAcyclic reports a human-readable cycle trail when asked, but
// nothing on the compute path calls it, matching spec §4.7's "No
// explicit cycle-detection is required at this level."
package depgraph

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// CellRef identifies a cell a code cell may depend on.
type CellRef struct {
	Sheet string
	X, Y  int64
}

func (r CellRef) key() string { return fmt.Sprintf("%s!%d,%d", r.Sheet, r.X, r.Y) }

// Graph is the reverse dependency index: referenced cell -> set of code
// cells that read it on their last successful evaluation.
type Graph struct {
	dependencies map[CellRef]map[CellRef]struct{}
}

// New builds an empty dependency graph.
func New() *Graph {
	return &Graph{dependencies: make(map[CellRef]map[CellRef]struct{})}
}

// DependentsOf returns every code cell currently depending on ref, in a
// stable (sorted) order — spec §4.7's compute() step "add dependent
// cells of cell_ref to cells_to_compute."
func (g *Graph) DependentsOf(ref CellRef) []CellRef {
	set, ok := g.dependencies[ref]
	if !ok {
		return nil
	}
	out := make([]CellRef, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return out
}

// UpdateDependentCells reconciles codeCell's dependency edges after an
// evaluation: removes edges to refs in oldDeps\newDeps, adds edges to
// refs in newDeps\oldDeps — spec §4.7 "update_dependent_cells."
func (g *Graph) UpdateDependentCells(codeCell CellRef, newDeps, oldDeps []CellRef) {
	newSet := toSet(newDeps)
	oldSet := toSet(oldDeps)

	for r := range oldSet {
		if _, stillDep := newSet[r]; stillDep {
			continue
		}
		if deps, ok := g.dependencies[r]; ok {
			delete(deps, codeCell)
			if len(deps) == 0 {
				delete(g.dependencies, r)
			}
		}
	}
	for r := range newSet {
		if _, wasDep := oldSet[r]; wasDep {
			continue
		}
		if g.dependencies[r] == nil {
			g.dependencies[r] = make(map[CellRef]struct{})
		}
		g.dependencies[r][codeCell] = struct{}{}
	}
}

// RemoveCell drops every edge a deleted code cell participates in, as
// both a dependent and (via its own stale entries) a referenced cell.
func (g *Graph) RemoveCell(codeCell CellRef) {
	g.UpdateDependentCells(codeCell, nil, g.dependenciesOf(codeCell))
	delete(g.dependencies, codeCell)
}

func (g *Graph) dependenciesOf(codeCell CellRef) []CellRef {
	var out []CellRef
	for ref, deps := range g.dependencies {
		if _, ok := deps[codeCell]; ok {
			out = append(out, ref)
		}
	}
	return out
}

func toSet(refs []CellRef) map[CellRef]struct{} {
	s := make(map[CellRef]struct{}, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// CheckAcyclic builds a lvlath core.Graph mirror of the current
// dependency edges and runs dfs.TopologicalSort over it, returning a
// descriptive error if a cycle exists. This is a diagnostic only — the
// compute loop never calls it, since spec §4.7 breaks self-referential
// cycles by value-equality convergence instead of detection. Intended
// for an offline consistency check (e.g. a `gridctl` debug command).
func (g *Graph) CheckAcyclic() error {
	lg := core.NewGraph(core.WithDirected(true))

	seen := make(map[string]bool)
	ensure := func(r CellRef) {
		k := r.key()
		if !seen[k] {
			seen[k] = true
			_ = lg.AddVertex(k)
		}
	}

	for ref, deps := range g.dependencies {
		ensure(ref)
		for dep := range deps {
			ensure(dep)
			// an edge ref -> dep: dep's evaluation depends on ref's value,
			// so ref must settle first.
			if _, err := lg.AddEdge(ref.key(), dep.key(), 0); err != nil {
				return fmt.Errorf("depgraph: building diagnostic graph: %w", err)
			}
		}
	}

	if _, err := dfs.TopologicalSort(lg); err != nil {
		return fmt.Errorf("depgraph: dependency cycle detected: %w", err)
	}
	return nil
}
