package planner

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdata/drift/config"
	"github.com/driftdata/drift/errors"
	"github.com/driftdata/drift/logger"
	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// test catalog

type testCatalog struct {
	searchPath []string
	tables     map[string]*sql.TableInfo
}

func (c *testCatalog) LookupTable(ctx context.Context, qualifier string, name string) (*sql.TableInfo, error) {
	return c.tables[qualifier+"."+name], nil
}

func (c *testCatalog) CurrentSearchPath() []string {
	return c.searchPath
}

type testFunctions struct {
	signatures map[string][]sql.FunctionSignature
}

func (f *testFunctions) SignaturesFor(name string) []sql.FunctionSignature {
	return f.signatures[name]
}

func newTestCatalog() *testCatalog {
	return &testCatalog{
		searchPath: []string{"main", "aux"},
		tables: map[string]*sql.TableInfo{
			"main.orders": {
				Qualifier: "main",
				Name:      "orders",
				Columns: []*sql.ColumnInfo{
					{Name: "id", Type: parser.NewDataTypeInt64()},
					{Name: "amount", Type: parser.NewDataTypeFloat64()},
					{Name: "region", Type: parser.NewDataTypeString()},
				},
			},
			"main.customers": {
				Qualifier: "main",
				Name:      "customers",
				Columns: []*sql.ColumnInfo{
					{Name: "id", Type: parser.NewDataTypeInt64()},
					{Name: "name", Type: parser.NewDataTypeString()},
				},
			},
			"aux.ledger": {
				Qualifier: "aux",
				Name:      "ledger",
				Columns: []*sql.ColumnInfo{
					{Name: "entry", Type: parser.NewDataTypeInt32()},
					{Name: "note", Type: parser.NewDataTypeString()},
				},
			},
		},
	}
}

func newTestFunctions() *testFunctions {
	i64 := parser.NewDataTypeInt64()
	f64 := parser.NewDataTypeFloat64()
	str := parser.NewDataTypeString()
	return &testFunctions{
		signatures: map[string][]sql.FunctionSignature{
			"count": {
				{Name: "count", ParamTypes: []parser.ExprDataType{i64}, ReturnType: i64, IsAggregate: true},
				{Name: "count", ParamTypes: []parser.ExprDataType{str}, ReturnType: i64, IsAggregate: true},
			},
			"sum": {
				{Name: "sum", ParamTypes: []parser.ExprDataType{i64}, ReturnType: i64, IsAggregate: true},
				{Name: "sum", ParamTypes: []parser.ExprDataType{f64}, ReturnType: f64, IsAggregate: true},
			},
			"avg": {
				{Name: "avg", ParamTypes: []parser.ExprDataType{f64}, ReturnType: f64, IsAggregate: true},
			},
			"min": {
				{Name: "min", ParamTypes: []parser.ExprDataType{i64}, ReturnType: i64, IsAggregate: true},
				{Name: "min", ParamTypes: []parser.ExprDataType{f64}, ReturnType: f64, IsAggregate: true},
				{Name: "min", ParamTypes: []parser.ExprDataType{str}, ReturnType: str, IsAggregate: true},
			},
			"max": {
				{Name: "max", ParamTypes: []parser.ExprDataType{i64}, ReturnType: i64, IsAggregate: true},
				{Name: "max", ParamTypes: []parser.ExprDataType{f64}, ReturnType: f64, IsAggregate: true},
				{Name: "max", ParamTypes: []parser.ExprDataType{str}, ReturnType: str, IsAggregate: true},
			},
			"upper": {
				{Name: "upper", ParamTypes: []parser.ExprDataType{str}, ReturnType: str},
			},
			"length": {
				{Name: "length", ParamTypes: []parser.ExprDataType{str}, ReturnType: i64},
			},
			"fx": {
				{Name: "fx", ParamTypes: []parser.ExprDataType{i64, i64}, ReturnType: i64},
				{Name: "fx", ParamTypes: []parser.ExprDataType{f64, f64}, ReturnType: f64},
			},
			"row_number": {
				{Name: "row_number", ParamTypes: []parser.ExprDataType{}, ReturnType: i64, IsWindow: true},
			},
		},
	}
}

func newTestPlanner(t *testing.T) *StatementPlanner {
	t.Helper()
	return NewStatementPlanner(newTestCatalog(), newTestFunctions(), logger.NewLogfLogger(t))
}

// AST construction helpers

var tpos = parser.Pos{Line: 1, Column: 1}

func tIdent(name string) *parser.Ident {
	return &parser.Ident{NamePos: tpos, Name: name}
}

func tCol(name string) parser.Expr {
	return tIdent(name)
}

func tQual(table string, column string) parser.Expr {
	return &parser.QualifiedRef{Table: tIdent(table), Column: tIdent(column)}
}

func tInt(value string) parser.Expr {
	return &parser.IntegerLit{ValuePos: tpos, Value: value}
}

func tFloat(value string) parser.Expr {
	return &parser.FloatLit{ValuePos: tpos, Value: value}
}

func tString(value string) parser.Expr {
	return &parser.StringLit{ValuePos: tpos, Value: value}
}

func tBin(x parser.Expr, op parser.Token, y parser.Expr) parser.Expr {
	return &parser.BinaryExpr{X: x, OpPos: tpos, Op: op, Y: y}
}

func tCall(name string, args ...parser.Expr) *parser.Call {
	return &parser.Call{Name: tIdent(name), Lparen: tpos, Args: args, Rparen: tpos}
}

func tTable(name string) *parser.QualifiedTableName {
	return &parser.QualifiedTableName{Name: tIdent(name)}
}

func tTableAs(name string, alias string) *parser.QualifiedTableName {
	return &parser.QualifiedTableName{Name: tIdent(name), Alias: tIdent(alias)}
}

func tQualTable(qualifier string, name string) *parser.QualifiedTableName {
	return &parser.QualifiedTableName{Qualifier: tIdent(qualifier), Name: tIdent(name)}
}

func tRC(expr parser.Expr) *parser.ResultColumn {
	return &parser.ResultColumn{Expr: expr}
}

func tRCAlias(expr parser.Expr, alias string) *parser.ResultColumn {
	return &parser.ResultColumn{Expr: expr, Alias: tIdent(alias)}
}

func tStar() *parser.ResultColumn {
	return &parser.ResultColumn{Star: tpos}
}

func tSelect(columns []*parser.ResultColumn, source parser.Source) *parser.SelectStatement {
	return &parser.SelectStatement{Select: tpos, Columns: columns, Source: source}
}

func tJoin(kind parser.JoinKind, x parser.Source, y parser.Source, on parser.Expr) *parser.JoinClause {
	join := &parser.JoinClause{
		X:        x,
		Operator: &parser.JoinOperator{OpPos: tpos, Kind: kind},
		Y:        y,
	}
	if on != nil {
		join.Constraint = &parser.OnConstraint{On: tpos, X: on}
	}
	return join
}

func compile(t *testing.T, p *StatementPlanner, stmt parser.Statement) types.PlanOperator {
	t.Helper()
	op, err := p.CompilePlan(context.Background(), stmt)
	require.NoError(t, err)
	require.NotNil(t, op)
	return op
}

func compileErr(t *testing.T, p *StatementPlanner, stmt parser.Statement, code errors.Code) error {
	t.Helper()
	_, err := p.CompilePlan(context.Background(), stmt)
	require.Error(t, err)
	require.True(t, errors.Is(err, code), "expected %s, got: %v", code, err)
	return err
}

func countOps(op types.PlanOperator, match func(types.PlanOperator) bool) int {
	count := 0
	InspectPlan(op, func(node types.PlanOperator) bool {
		if node != nil && match(node) {
			count++
		}
		return true
	})
	return count
}

// tests

func TestCompileSimpleSelect(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(tCol("region"))}, tTable("orders"))
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 2)
	assert.Equal(t, "id", schema[0].ColumnName)
	assert.Equal(t, "int64", schema[0].Type.TypeDescription())
	assert.Equal(t, "region", schema[1].ColumnName)
	assert.Equal(t, "string", schema[1].Type.TypeDescription())
}

func TestCompileSelectStar(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("orders"))
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 3)
	assert.Equal(t, "id", schema[0].ColumnName)
	assert.Equal(t, "amount", schema[1].ColumnName)
	assert.Equal(t, "region", schema[2].ColumnName)
}

func TestSelectStarJoinColumnOrder(t *testing.T) {
	p := newTestPlanner(t)

	// columns come out in relation registration order even though both
	// tables have an id column
	join := tJoin(parser.JoinKindInner, tTable("orders"), tTable("customers"),
		tBin(tQual("orders", "id"), parser.EQ, tQual("customers", "id")))
	stmt := tSelect([]*parser.ResultColumn{tStar()}, join)
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 5)
	assert.Equal(t, "orders", schema[0].RelationName)
	assert.Equal(t, "id", schema[0].ColumnName)
	assert.Equal(t, "customers", schema[3].RelationName)
	assert.Equal(t, "id", schema[3].ColumnName)
}

func TestAmbiguousReferenceOnlyOnUse(t *testing.T) {
	p := newTestPlanner(t)

	join := tJoin(parser.JoinKindCross, tTable("orders"), tTable("customers"), nil)

	// a name ambiguous between the two relations is fine while unused
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, join)
	compile(t, p, stmt)

	// touching the ambiguous name is the error
	stmt = tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, join)
	compileErr(t, p, stmt, sql.ErrAmbiguousReference)

	// qualification resolves it
	stmt = tSelect([]*parser.ResultColumn{tRC(tQual("customers", "id"))}, join)
	compile(t, p, stmt)
}

func TestUnknownReference(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("nope"))}, tTable("orders"))
	err := compileErr(t, p, stmt, sql.ErrUnknownReference)
	assert.Contains(t, err.Error(), "'nope'")
}

func TestTableNotFound(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("missing"))
	compileErr(t, p, stmt, sql.ErrTableNotFound)

	// a qualified lookup does not consult the search path
	stmt = tSelect([]*parser.ResultColumn{tStar()}, tQualTable("main", "ledger"))
	compileErr(t, p, stmt, sql.ErrTableNotFound)
}

func TestSearchPathResolution(t *testing.T) {
	p := newTestPlanner(t)

	// ledger only exists in the second namespace of the search path
	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("ledger"))
	op := compile(t, p, stmt)
	require.Len(t, op.Schema(), 2)
	assert.Equal(t, "entry", op.Schema()[0].ColumnName)
}

func TestDuplicateRelationName(t *testing.T) {
	p := newTestPlanner(t)

	join := tJoin(parser.JoinKindCross, tTable("orders"), tTable("orders"), nil)
	stmt := tSelect([]*parser.ResultColumn{tStar()}, join)
	compileErr(t, p, stmt, sql.ErrDuplicateAlias)

	// aliasing one side fixes it
	join = tJoin(parser.JoinKindCross, tTable("orders"), tTableAs("orders", "o2"), nil)
	stmt = tSelect([]*parser.ResultColumn{tStar()}, join)
	compile(t, p, stmt)
}

func TestCompileIsDeterministic(t *testing.T) {
	p := newTestPlanner(t)

	build := func() parser.Statement {
		join := tJoin(parser.JoinKindInner, tTable("orders"), tTable("customers"),
			tBin(tQual("orders", "id"), parser.EQ, tQual("customers", "id")))
		stmt := tSelect([]*parser.ResultColumn{tRC(tQual("customers", "name")), tRC(tCol("amount"))}, join)
		stmt.WhereExpr = tBin(tCol("amount"), parser.GT, tInt("10"))
		return stmt
	}

	first := compile(t, p, build())
	second := compile(t, p, build())
	if diff := cmp.Diff(first.Plan(), second.Plan()); diff != "" {
		t.Errorf("plans differ between compilations (-first +second):\n%s", diff)
	}
}

func TestPlanTooDeep(t *testing.T) {
	catalog := newTestCatalog()
	functions := newTestFunctions()
	cfg := config.NewDefaults()
	p := NewStatementPlannerWithConfig(catalog, functions, logger.NewLogfLogger(t), cfg)

	var expr parser.Expr = tInt("1")
	for i := 0; i < 10000; i++ {
		expr = &parser.ParenExpr{Lparen: tpos, X: expr}
	}
	stmt := tSelect([]*parser.ResultColumn{tRC(expr)}, nil)
	compileErr(t, p, stmt, sql.ErrPlanTooDeep)

	// a shallow statement on the same planner still compiles
	compile(t, p, tSelect([]*parser.ResultColumn{tRC(tInt("1"))}, nil))
}

func TestPlanTooDeepNestedSubqueries(t *testing.T) {
	cfg := config.NewDefaults()
	p := NewStatementPlannerWithConfig(newTestCatalog(), newTestFunctions(), logger.NewLogfLogger(t), cfg)

	// statement recursion through derived tables hits the same limit as
	// expression nesting
	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("orders"))
	for i := 0; i < 10000; i++ {
		stmt = tSelect([]*parser.ResultColumn{tStar()}, &parser.ParenSource{Lparen: tpos, X: stmt, Alias: tIdent("d")})
	}
	compileErr(t, p, stmt, sql.ErrPlanTooDeep)
}

func TestConfiguredDepthLimit(t *testing.T) {
	cfg := &config.Config{MaxPlanDepth: 8}
	p := NewStatementPlannerWithConfig(newTestCatalog(), newTestFunctions(), logger.NewLogfLogger(t), cfg)

	var expr parser.Expr = tInt("1")
	for i := 0; i < 32; i++ {
		expr = &parser.ParenExpr{Lparen: tpos, X: expr}
	}
	stmt := tSelect([]*parser.ResultColumn{tRC(expr)}, nil)
	compileErr(t, p, stmt, sql.ErrPlanTooDeep)
}

func TestViewExpansion(t *testing.T) {
	catalog := newTestCatalog()
	catalog.tables["main.big_orders"] = &sql.TableInfo{
		Qualifier: "main",
		Name:      "big_orders",
		Columns: []*sql.ColumnInfo{
			{Name: "id", Type: parser.NewDataTypeInt64()},
			{Name: "amount", Type: parser.NewDataTypeFloat64()},
		},
		IsView: true,
		Definition: func() parser.Statement {
			stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(tCol("amount"))}, tTable("orders"))
			stmt.WhereExpr = tBin(tCol("amount"), parser.GT, tInt("100"))
			return stmt
		}(),
	}
	p := NewStatementPlanner(catalog, newTestFunctions(), logger.NewLogfLogger(t))

	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("big_orders"))
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 2)
	assert.Equal(t, "big_orders", schema[0].RelationName)

	// the view body is planned in place
	scans := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpTableScan)
		return ok
	})
	assert.Equal(t, 1, scans)
}

func TestCyclicViewReference(t *testing.T) {
	catalog := newTestCatalog()
	catalog.tables["main.v1"] = &sql.TableInfo{
		Qualifier:  "main",
		Name:       "v1",
		Columns:    []*sql.ColumnInfo{{Name: "x", Type: parser.NewDataTypeInt64()}},
		IsView:     true,
		Definition: tSelect([]*parser.ResultColumn{tStar()}, tTable("v2")),
	}
	catalog.tables["main.v2"] = &sql.TableInfo{
		Qualifier:  "main",
		Name:       "v2",
		Columns:    []*sql.ColumnInfo{{Name: "x", Type: parser.NewDataTypeInt64()}},
		IsView:     true,
		Definition: tSelect([]*parser.ResultColumn{tStar()}, tTable("v1")),
	}
	p := NewStatementPlanner(catalog, newTestFunctions(), logger.NewLogfLogger(t))

	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("v1"))
	compileErr(t, p, stmt, sql.ErrCyclicViewReference)
}

func TestExplain(t *testing.T) {
	p := newTestPlanner(t)

	stmt := &parser.ExplainStatement{
		Explain: tpos,
		Stmt:    tSelect([]*parser.ResultColumn{tStar()}, tTable("orders")),
	}
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 1)
	assert.Equal(t, "plan", schema[0].ColumnName)
	assert.Equal(t, "string", schema[0].Type.TypeDescription())
}

func TestNopCompilePlanner(t *testing.T) {
	p := sql.NewNopCompilePlanner()
	op, err := p.CompilePlan(context.Background(), tSelect(nil, nil))
	require.NoError(t, err)
	assert.Nil(t, op)
}
