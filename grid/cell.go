// Package grid implements the Sheet data model: cell values, layered
// formats, borders, columns, and DataTables — spec §3/§4.3/§4.6.
package grid

import "fmt"

// ErrorCode is a spreadsheet error code, following Excel conventions —
// grounded on the teacher's cell.go ErrorCode/ErrorMapper.
type ErrorCode uint8

const (
	ErrorCodeNull ErrorCode = iota + 1
	ErrorCodeDiv0
	ErrorCodeValue
	ErrorCodeRef
	ErrorCodeName
	ErrorCodeNum
	ErrorCodeNA
	ErrorCodeSpill // spec §3/§4.7: an array output's footprint collides with another cell
	ErrorCodeOther
)

var errorCodeText = map[ErrorCode]string{
	ErrorCodeNull:  "#NULL!",
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeName:  "#NAME?",
	ErrorCodeNum:   "#NUM!",
	ErrorCodeNA:    "#N/A",
	ErrorCodeSpill: "#SPILL!",
	ErrorCodeOther: "#ERROR!",
}

// SpreadsheetError is an error value carried inside a CellValue.
type SpreadsheetError struct {
	Code    ErrorCode
	Message string
}

func (e *SpreadsheetError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return errorCodeText[e.Code]
}

// NewSpreadsheetError builds a SpreadsheetError, defaulting Message to
// the code's display string.
func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	if message == "" {
		message = errorCodeText[code]
	}
	return &SpreadsheetError{Code: code, Message: message}
}

// CellType tags a CellValue's shape — spec §3 ("type information").
type CellType uint8

const (
	CellTypeEmpty CellType = iota
	CellTypeNumber
	CellTypeString
	CellTypeDate
	CellTypeBoolean
	CellTypeError
	CellTypeCode // 1x1 folded CodeRun, spec §4.6 upgrade rule
)

// CellValue is a calculated cell value with type information — spec §3.
// Value's dynamic type depends on Type: float64 (Number), string
// (String/Date), bool (Boolean), *SpreadsheetError (Error), nil (Empty).
type CellValue struct {
	Type    CellType
	Value   any
	Formula string // non-empty for CellTypeCode and formula-bearing cells
	Code    string // source for a folded 1x1 CodeRun (spec §4.6)
	RunLang string // language of a folded CodeRun
}

func (c CellValue) IsEmpty() bool { return c.Type == CellTypeEmpty }

func (c CellValue) String() string {
	switch c.Type {
	case CellTypeEmpty:
		return ""
	case CellTypeError:
		if se, ok := c.Value.(*SpreadsheetError); ok {
			return se.Error()
		}
		return "#ERROR!"
	default:
		return fmt.Sprintf("%v", c.Value)
	}
}

// NumberValue builds a numeric CellValue.
func NumberValue(v float64) CellValue { return CellValue{Type: CellTypeNumber, Value: v} }

// StringValue builds a text CellValue.
func StringValue(v string) CellValue { return CellValue{Type: CellTypeString, Value: v} }

// BoolValue builds a boolean CellValue.
func BoolValue(v bool) CellValue { return CellValue{Type: CellTypeBoolean, Value: v} }

// ErrorValue builds an error CellValue.
func ErrorValue(err *SpreadsheetError) CellValue {
	return CellValue{Type: CellTypeError, Value: err}
}
