package parser

import "fmt"

// Pos is a position in the original SQL text, 1-based. The zero Pos is
// invalid and means "position unknown".
type Pos struct {
	Line   int
	Column int
}

func (p Pos) IsValid() bool {
	return p.Line != 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is an operator or keyword token attached to an expression node by
// the parser.
type Token int

const (
	ILLEGAL Token = iota

	// logical operators
	AND
	OR
	NOT

	// equality operators
	EQ // =
	NE // <>

	// comparison operators
	LT // <
	LE // <=
	GT // >
	GE // >=

	// arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
	REM   // %

	// bitwise operators
	BITAND // &
	BITOR  // |
	BITNOT // ~
	LSHIFT // <<
	RSHIFT // >>

	// string operators
	CONCAT // ||
	LIKE
	NOTLIKE

	// membership and null tests
	IN
	NOTIN
	IS
	ISNOT
	BETWEEN
	NOTBETWEEN
)

var tokenNames = map[Token]string{
	ILLEGAL:    "ILLEGAL",
	AND:        "AND",
	OR:         "OR",
	NOT:        "NOT",
	EQ:         "=",
	NE:         "<>",
	LT:         "<",
	LE:         "<=",
	GT:         ">",
	GE:         ">=",
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
	REM:        "%",
	BITAND:     "&",
	BITOR:      "|",
	BITNOT:     "~",
	LSHIFT:     "<<",
	RSHIFT:     ">>",
	CONCAT:     "||",
	LIKE:       "LIKE",
	NOTLIKE:    "NOT LIKE",
	IN:         "IN",
	NOTIN:      "NOT IN",
	IS:         "IS",
	ISNOT:      "IS NOT",
	BETWEEN:    "BETWEEN",
	NOTBETWEEN: "NOT BETWEEN",
}

func (t Token) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}
