// Command gridctl is a terminal REPL around a single-sheet
// engine.GridController — spec §9's "a thin host is expected to drive
// GridController.Transact and react to TransactionSummary," rendered as
// a minimal interactive shell rather than a GUI. Grounded on
// broyeztony-karl/repl's term.IsTerminal-gated TTY detection.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/engine"
	"github.com/gridkernel/sheetcore/grid"
)

func main() {
	connectionFile := flag.String("kernel", "", "path to a Jupyter connection file for Script-language code cells")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	gc := engine.NewGridController(nil, engine.DefaultConfig(), log)
	gc.AddSheet("Sheet1", "Sheet1")

	if *connectionFile != "" {
		kx, err := connectKernel(context.Background(), *connectionFile, gc, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "gridctl: kernel connection failed:", err)
			os.Exit(1)
		}
		gc.SetScriptExecutor(kx)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Println("gridctl — type `help` for commands")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !runCommand(gc, line) {
			return
		}
	}
}

func runCommand(gc *engine.GridController, line string) bool {
	if summary, err := gc.EnforceSuspensionTimeout(); err != nil {
		fmt.Println("error:", err)
	} else if summary != nil {
		fmt.Println("script suspension timed out; cancelled")
	}

	fields := strings.Fields(line)
	cmd := fields[0]

	switch cmd {
	case "quit", "exit":
		return false
	case "help":
		printHelp()
	case "set":
		cmdSet(gc, fields)
	case "get":
		cmdGet(gc, fields)
	case "undo":
		if _, err := gc.Undo(); err != nil {
			fmt.Println("error:", err)
		}
	case "redo":
		if _, err := gc.Redo(); err != nil {
			fmt.Println("error:", err)
		}
	default:
		fmt.Println("unknown command:", cmd)
	}
	return true
}

func printHelp() {
	fmt.Println(`commands:
  set <CELL> <value-or-=formula>   e.g. set A1 10, set B1 =A1+1
  get <CELL>                       print the cell's current value
  undo
  redo
  quit`)
}

func cmdSet(gc *engine.GridController, fields []string) {
	if len(fields) < 3 {
		fmt.Println("usage: set <CELL> <value>")
		return
	}
	p, ok := parseCellRef(fields[1])
	if !ok {
		fmt.Println("bad cell reference:", fields[1])
		return
	}
	raw := strings.Join(fields[2:], " ")

	op := engine.Operation{Kind: engine.OpSetCellValues, Sheet: "Sheet1"}
	op.SetCellValues.Pos = p

	if strings.HasPrefix(raw, "=") {
		codeOp := engine.Operation{Kind: engine.OpSetCellCode, Sheet: "Sheet1"}
		codeOp.SetCellCode.Pos = p
		codeOp.SetCellCode.Code = &engine.CodeCellValue{Language: "Formula", Code: strings.TrimPrefix(raw, "=")}
		if _, err := gc.Transact([]engine.Operation{codeOp}, true); err != nil {
			fmt.Println("error:", err)
		}
		return
	}

	var v grid.CellValue
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		v = grid.NumberValue(n)
	} else {
		v = grid.StringValue(raw)
	}
	op.SetCellValues.Values = [][]grid.CellValue{{v}}
	if _, err := gc.Transact([]engine.Operation{op}, true); err != nil {
		fmt.Println("error:", err)
	}
}

func cmdGet(gc *engine.GridController, fields []string) {
	if len(fields) < 2 {
		fmt.Println("usage: get <CELL>")
		return
	}
	p, ok := parseCellRef(fields[1])
	if !ok {
		fmt.Println("bad cell reference:", fields[1])
		return
	}
	sheet, _ := gc.Sheet("Sheet1")
	fmt.Println(sheet.CellValueAt(p).String())
}

// parseCellRef parses a bare A1-style reference ("B12") with no sheet
// prefix or $ anchors — the REPL's single-sheet scope doesn't need the
// full a1 grammar.
func parseCellRef(s string) (a1.Pos, bool) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return a1.Pos{}, false
	}
	col := int64(0)
	for _, c := range s[:i] {
		col = col*26 + int64(c-'A'+1)
	}
	row, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil || row < 1 {
		return a1.Pos{}, false
	}
	return a1.Pos{X: col, Y: row}, true
}
