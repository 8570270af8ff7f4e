package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
)

func exprType(t *testing.T, p *StatementPlanner, expr parser.Expr) parser.ExprDataType {
	t.Helper()
	op := compile(t, p, tSelect([]*parser.ResultColumn{tRC(expr)}, tTable("orders")))
	schema := op.Schema()
	require.Len(t, schema, 1)
	return schema[0].Type
}

func TestIntegerLiteralTyping(t *testing.T) {
	p := newTestPlanner(t)

	tests := []struct {
		value    string
		expected string
	}{
		{"0", "int8"},
		{"127", "int8"},
		{"-128", "int8"},
		{"128", "int16"},
		{"32767", "int16"},
		{"32768", "int32"},
		{"2147483647", "int32"},
		{"2147483648", "int64"},
		{"9223372036854775807", "int64"},
	}
	for _, test := range tests {
		typ := exprType(t, p, tInt(test.value))
		assert.Equal(t, test.expected, typ.TypeDescription(), "literal %s", test.value)
	}

	stmt := tSelect([]*parser.ResultColumn{tRC(tInt("9223372036854775808"))}, nil)
	compileErr(t, p, stmt, sql.ErrIntegerLiteral)
}

func TestLiteralTypes(t *testing.T) {
	p := newTestPlanner(t)

	assert.Equal(t, "float64", exprType(t, p, tFloat("2.5")).TypeDescription())
	assert.Equal(t, "string", exprType(t, p, tString("hello")).TypeDescription())
	assert.Equal(t, "bool", exprType(t, p, &parser.BoolLit{ValuePos: tpos, Value: true}).TypeDescription())
	assert.Equal(t, "void", exprType(t, p, &parser.NullLit{ValuePos: tpos}).TypeDescription())
}

func TestArithmeticWidening(t *testing.T) {
	p := newTestPlanner(t)

	// int8 literal widens to the column type
	typ := exprType(t, p, tBin(tCol("id"), parser.PLUS, tInt("1")))
	assert.Equal(t, "int64", typ.TypeDescription())

	// int against float meets at float64
	typ = exprType(t, p, tBin(tCol("id"), parser.PLUS, tCol("amount")))
	assert.Equal(t, "float64", typ.TypeDescription())

	// two small literals stay small
	typ = exprType(t, p, tBin(tInt("1"), parser.PLUS, tInt("200")))
	assert.Equal(t, "int16", typ.TypeDescription())
}

func TestArithmeticTypeErrors(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tBin(tCol("region"), parser.PLUS, tInt("1")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeIncompatibleWithArithmeticOperator)

	stmt = tSelect([]*parser.ResultColumn{tRC(tBin(tCol("amount"), parser.BITAND, tInt("1")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeIncompatibleWithBitwiseOperator)

	stmt = tSelect([]*parser.ResultColumn{tRC(tBin(tCol("id"), parser.CONCAT, tCol("region")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeIncompatibleWithConcatOperator)
}

func TestComparisonTyping(t *testing.T) {
	p := newTestPlanner(t)

	typ := exprType(t, p, tBin(tCol("amount"), parser.GT, tInt("10")))
	assert.Equal(t, "bool", typ.TypeDescription())

	typ = exprType(t, p, tBin(tCol("region"), parser.EQ, tString("west")))
	assert.Equal(t, "bool", typ.TypeDescription())

	// no common type for a string against an integer
	stmt := tSelect([]*parser.ResultColumn{tRC(tBin(tCol("region"), parser.EQ, tInt("1")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeMismatch)
}

func TestLogicalOperatorTyping(t *testing.T) {
	p := newTestPlanner(t)

	cond := tBin(
		tBin(tCol("amount"), parser.GT, tInt("10")),
		parser.AND,
		tBin(tCol("region"), parser.EQ, tString("west")),
	)
	typ := exprType(t, p, cond)
	assert.Equal(t, "bool", typ.TypeDescription())

	stmt := tSelect([]*parser.ResultColumn{tRC(tBin(tCol("id"), parser.AND, tCol("id")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeIncompatibleWithLogicalOperator)
}

func TestInListTyping(t *testing.T) {
	p := newTestPlanner(t)

	in := &parser.BinaryExpr{
		X:     tCol("id"),
		OpPos: tpos,
		Op:    parser.IN,
		Y:     &parser.ExprList{Lparen: tpos, Exprs: []parser.Expr{tInt("1"), tInt("2"), tInt("3")}},
	}
	typ := exprType(t, p, in)
	assert.Equal(t, "bool", typ.TypeDescription())

	mixed := &parser.BinaryExpr{
		X:     tCol("id"),
		OpPos: tpos,
		Op:    parser.IN,
		Y:     &parser.ExprList{Lparen: tpos, Exprs: []parser.Expr{tInt("1"), tString("x")}},
	}
	stmt := tSelect([]*parser.ResultColumn{tRC(mixed)}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeMismatch)
}

func TestBetweenTyping(t *testing.T) {
	p := newTestPlanner(t)

	between := &parser.BinaryExpr{
		X:     tCol("amount"),
		OpPos: tpos,
		Op:    parser.BETWEEN,
		Y:     &parser.Range{X: tInt("1"), And: tpos, Y: tInt("100")},
	}
	typ := exprType(t, p, between)
	assert.Equal(t, "bool", typ.TypeDescription())

	bad := &parser.BinaryExpr{
		X:     tCol("region"),
		OpPos: tpos,
		Op:    parser.BETWEEN,
		Y:     &parser.Range{X: tInt("1"), And: tpos, Y: tInt("100")},
	}
	stmt := tSelect([]*parser.ResultColumn{tRC(bad)}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeIncompatibleWithBetweenOperator)
}

func TestCastExpr(t *testing.T) {
	p := newTestPlanner(t)

	cast := func(x parser.Expr, typeName string) parser.Expr {
		return &parser.CastExpr{Cast: tpos, X: x, Type: &parser.Type{Name: tIdent(typeName)}}
	}

	// explicit casts may narrow
	typ := exprType(t, p, cast(tCol("amount"), "int32"))
	assert.Equal(t, "int32", typ.TypeDescription())

	typ = exprType(t, p, cast(tCol("id"), "string"))
	assert.Equal(t, "string", typ.TypeDescription())

	typ = exprType(t, p, cast(tCol("region"), "int64"))
	assert.Equal(t, "int64", typ.TypeDescription())

	stmt := tSelect([]*parser.ResultColumn{tRC(cast(tCol("amount"), "date"))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrInvalidCast)

	stmt = tSelect([]*parser.ResultColumn{tRC(cast(tCol("id"), "whatever"))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrUnknownType)
}

func TestCaseExprTyping(t *testing.T) {
	p := newTestPlanner(t)

	// searched form, arms meet at float64
	searched := &parser.CaseExpr{
		Case: tpos,
		Blocks: []*parser.CaseBlock{
			{When: tpos, Condition: tBin(tCol("amount"), parser.GT, tInt("100")), Then: tpos, Body: tCol("amount")},
		},
		ElseExpr: tInt("0"),
		End:      tpos,
	}
	typ := exprType(t, p, searched)
	assert.Equal(t, "float64", typ.TypeDescription())

	// operand form compares the operand per arm
	operand := &parser.CaseExpr{
		Case:    tpos,
		Operand: tCol("region"),
		Blocks: []*parser.CaseBlock{
			{When: tpos, Condition: tString("west"), Then: tpos, Body: tInt("1")},
			{When: tpos, Condition: tString("east"), Then: tpos, Body: tInt("2")},
		},
		End: tpos,
	}
	typ = exprType(t, p, operand)
	assert.Equal(t, "int8", typ.TypeDescription())

	// searched arms must be boolean
	notBool := &parser.CaseExpr{
		Case: tpos,
		Blocks: []*parser.CaseBlock{
			{When: tpos, Condition: tCol("id"), Then: tpos, Body: tInt("1")},
		},
		End: tpos,
	}
	stmt := tSelect([]*parser.ResultColumn{tRC(notBool)}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrBooleanExpressionExpected)

	// arm results with no common type
	badArms := &parser.CaseExpr{
		Case: tpos,
		Blocks: []*parser.CaseBlock{
			{When: tpos, Condition: tBin(tCol("amount"), parser.GT, tInt("1")), Then: tpos, Body: tInt("1")},
		},
		ElseExpr: tString("none"),
		End:      tpos,
	}
	stmt = tSelect([]*parser.ResultColumn{tRC(badArms)}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeMismatch)
}

func TestFunctionOverloadResolution(t *testing.T) {
	p := newTestPlanner(t)

	// fx has (int64, int64) and (float64, float64) overloads; a mixed call
	// picks the float overload since the int one would truncate the float
	typ := exprType(t, p, tCall("fx", tInt("1"), tFloat("2.5")))
	assert.Equal(t, "float64", typ.TypeDescription())

	// all-integer arguments pick the integer overload
	typ = exprType(t, p, tCall("fx", tInt("1"), tInt("2")))
	assert.Equal(t, "int64", typ.TypeDescription())
}

func TestFunctionCallErrors(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCall("nope", tInt("1")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrCallUnknownFunction)

	stmt = tSelect([]*parser.ResultColumn{tRC(tCall("upper", tString("a"), tString("b")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrCallParameterCountMismatch)

	// no overload accepts a bool argument
	stmt = tSelect([]*parser.ResultColumn{tRC(tCall("upper", &parser.BoolLit{ValuePos: tpos, Value: true}))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrTypeMismatch)
}

func TestAmbiguousFunctionCall(t *testing.T) {
	functions := newTestFunctions()
	i64 := parser.NewDataTypeInt64()
	functions.signatures["dup"] = []sql.FunctionSignature{
		{Name: "dup", ParamTypes: []parser.ExprDataType{i64}, ReturnType: i64},
		{Name: "dup", ParamTypes: []parser.ExprDataType{i64}, ReturnType: parser.NewDataTypeString()},
	}
	p := NewStatementPlanner(newTestCatalog(), functions, nil)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCall("dup", tCol("id")))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrAmbiguousFunctionCall)
}

func TestOverloadDeclarationOrderBreaksTies(t *testing.T) {
	functions := newTestFunctions()
	functions.signatures["pick"] = []sql.FunctionSignature{
		{Name: "pick", ParamTypes: []parser.ExprDataType{parser.NewDataTypeFloat64()}, ReturnType: parser.NewDataTypeFloat64()},
		{Name: "pick", ParamTypes: []parser.ExprDataType{parser.NewDataTypeFloat32()}, ReturnType: parser.NewDataTypeFloat32()},
	}
	p := NewStatementPlanner(newTestCatalog(), functions, nil)

	// an int8 argument widens into either float overload at the same cost;
	// the one declared first wins
	op := compile(t, p, tSelect([]*parser.ResultColumn{tRC(tCall("pick", tInt("1")))}, nil))
	assert.Equal(t, "float64", op.Schema()[0].Type.TypeDescription())
}

func TestScalarSubqueryTyping(t *testing.T) {
	p := newTestPlanner(t)

	sub := tSelect([]*parser.ResultColumn{tRC(tCall("max", tCol("amount")))}, tTable("orders"))
	typ := exprType(t, p, sub)
	assert.Equal(t, "float64", typ.TypeDescription())

	// a scalar subquery must produce exactly one column
	wide := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(tCol("amount"))}, tTable("orders"))
	stmt := tSelect([]*parser.ResultColumn{tRC(wide)}, tTable("customers"))
	compileErr(t, p, stmt, sql.ErrSingleColumnExpected)
}

func TestMisplacedAggregates(t *testing.T) {
	p := newTestPlanner(t)

	// aggregate in WHERE
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	stmt.WhereExpr = tBin(tCall("sum", tCol("amount")), parser.GT, tInt("10"))
	compileErr(t, p, stmt, sql.ErrMisplacedAggregate)

	// aggregate nested inside an aggregate
	stmt = tSelect([]*parser.ResultColumn{tRC(tCall("sum", tCall("sum", tCol("amount"))))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrMisplacedAggregate)

	// aggregate in GROUP BY
	stmt = tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCall("sum", tCol("amount"))}
	compileErr(t, p, stmt, sql.ErrMisplacedAggregate)
}

func TestWindowFunctionPlacement(t *testing.T) {
	p := newTestPlanner(t)

	// a window-only function needs an OVER clause
	stmt := tSelect([]*parser.ResultColumn{tRC(tCall("row_number"))}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrMisplacedWindowFunction)

	// window calls are not allowed in WHERE
	call := tCall("row_number")
	call.Over = &parser.WindowDef{Over: tpos}
	stmt = tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	stmt.WhereExpr = tBin(call, parser.GT, tInt("1"))
	compileErr(t, p, stmt, sql.ErrMisplacedWindowFunction)
}

func TestDistinctOnScalarFunction(t *testing.T) {
	p := newTestPlanner(t)

	call := tCall("upper", tCol("region"))
	call.Distinct = tpos
	stmt := tSelect([]*parser.ResultColumn{tRC(call)}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrUnsupportedConstruct)
}

func TestCountStar(t *testing.T) {
	p := newTestPlanner(t)

	call := tCall("count")
	call.Star = tpos
	op := compile(t, p, tSelect([]*parser.ResultColumn{tRC(call)}, tTable("orders")))
	assert.Equal(t, "int64", op.Schema()[0].Type.TypeDescription())

	// star on anything else is a parameter count problem
	bad := tCall("sum")
	bad.Star = tpos
	stmt := tSelect([]*parser.ResultColumn{tRC(bad)}, tTable("orders"))
	compileErr(t, p, stmt, sql.ErrCallParameterCountMismatch)
}
