package formulaeval

import (
	"strconv"
	"strings"

	"github.com/gridkernel/sheetcore/a1"
)

// tokenKind mirrors the teacher's TokenType (lexer.go), trimmed to the
// subset an arithmetic + cell-reference evaluator needs.
type tokenKind int

const (
	tokNumber tokenKind = iota
	tokCell
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	num  float64
	pos  a1.Pos
}

// tokenize lexes an arithmetic/cell-reference formula body — grounded
// on the teacher's character-classification scan in lexer.go, trimmed
// to this package's smaller grammar.
func tokenize(src string) ([]token, *RunError) {
	var out []token
	i, n := 0, len(src)
	for i < n {
		ch := src[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '+':
			out = append(out, token{kind: tokPlus})
			i++
		case ch == '-':
			out = append(out, token{kind: tokMinus})
			i++
		case ch == '*':
			out = append(out, token{kind: tokStar})
			i++
		case ch == '/':
			out = append(out, token{kind: tokSlash})
			i++
		case ch == '(':
			out = append(out, token{kind: tokLParen})
			i++
		case ch == ')':
			out = append(out, token{kind: tokRParen})
			i++
		case isDigit(ch):
			j := i
			for j < n && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			v, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, &RunError{Kind: RunErrorSyntax, Msg: "bad number literal: " + src[i:j]}
			}
			out = append(out, token{kind: tokNumber, num: v})
			i = j
		case isCellRefStart(ch):
			j := i
			for j < n && (isLetter(src[j]) || isDigit(src[j])) {
				j++
			}
			pos, ok := parseCellRef(src[i:j])
			if !ok {
				return nil, &RunError{Kind: RunErrorBadCellReference, Msg: "bad cell reference: " + src[i:j]}
			}
			out = append(out, token{kind: tokCell, pos: pos})
			i = j
		default:
			return nil, &RunError{Kind: RunErrorSyntax, Msg: "unexpected character: " + string(ch)}
		}
	}
	return out, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
func isCellRefStart(b byte) bool { return isLetter(b) }

// parseCellRef parses a relative A1-style reference like "A1" or "BC23"
// into a Pos. No absolute ($) markers in this trimmed grammar.
func parseCellRef(s string) (a1.Pos, bool) {
	s = strings.ToUpper(s)
	i := 0
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == 0 || i == len(s) {
		return a1.Pos{}, false
	}
	colStr, rowStr := s[:i], s[i:]
	col := int64(0)
	for _, c := range colStr {
		col = col*26 + int64(c-'A'+1)
	}
	row, err := strconv.ParseInt(rowStr, 10, 64)
	if err != nil || row < 1 {
		return a1.Pos{}, false
	}
	return a1.Pos{X: col, Y: row}, true
}
