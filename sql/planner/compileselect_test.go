package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

func findJoins(op types.PlanOperator, jointype joinType) []*PlanOpNestedLoops {
	var joins []*PlanOpNestedLoops
	InspectPlan(op, func(node types.PlanOperator) bool {
		if join, ok := node.(*PlanOpNestedLoops); ok && join.jointype == jointype {
			joins = append(joins, join)
		}
		return true
	})
	return joins
}

func TestGroupByAggregate(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{
		tRC(tCol("region")),
		tRC(tCall("sum", tCol("amount"))),
	}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("region")}
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 2)
	assert.Equal(t, "region", schema[0].ColumnName)
	assert.Equal(t, "string", schema[0].Type.TypeDescription())
	assert.Equal(t, "float64", schema[1].Type.TypeDescription())

	groups := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpGroupBy)
		return ok
	})
	assert.Equal(t, 1, groups)
}

func TestRepeatedAggregateSharesOneColumn(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{
		tRC(tCall("sum", tCol("amount"))),
		tRC(tBin(tCall("sum", tCol("amount")), parser.PLUS, tFloat("1.0"))),
	}, tTable("orders"))
	op := compile(t, p, stmt)

	var group *PlanOpGroupBy
	InspectPlan(op, func(node types.PlanOperator) bool {
		if g, ok := node.(*PlanOpGroupBy); ok {
			group = g
		}
		return true
	})
	require.NotNil(t, group)
	assert.Len(t, group.Aggregates, 1)
}

func TestUngroupedColumnReference(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{
		tRC(tCol("id")),
		tRC(tCall("sum", tCol("amount"))),
	}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("region")}
	err := compileErr(t, p, stmt, sql.ErrUnknownReference)
	assert.Contains(t, err.Error(), "GROUP BY")
}

func TestStarProjectionWithGroupBy(t *testing.T) {
	p := newTestPlanner(t)

	// a wildcard expands to every source column, so the ungrouped ones
	// are unreachable above the group by
	stmt := tSelect([]*parser.ResultColumn{tStar()}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("region")}
	err := compileErr(t, p, stmt, sql.ErrUnknownReference)
	assert.Contains(t, err.Error(), "GROUP BY")

	// table.* is rejected the same way
	stmt = tSelect([]*parser.ResultColumn{
		tRC(&parser.QualifiedRef{Table: tIdent("orders"), Star: tpos}),
	}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("region")}
	compileErr(t, p, stmt, sql.ErrUnknownReference)

	// grouping by every column makes the wildcard legal again
	stmt = tSelect([]*parser.ResultColumn{tStar()}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("id"), tCol("amount"), tCol("region")}
	op := compile(t, p, stmt)
	require.Len(t, op.Schema(), 3)
}

func TestDuplicateGroupByKeysCollapse(t *testing.T) {
	p := newTestPlanner(t)

	// the same key written three ways groups only once
	stmt := tSelect([]*parser.ResultColumn{
		tRC(tCol("region")),
		tRC(tCall("count", tCol("id"))),
	}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("region"), tCol("region"), tQual("orders", "region")}
	op := compile(t, p, stmt)

	var group *PlanOpGroupBy
	InspectPlan(op, func(node types.PlanOperator) bool {
		if g, ok := node.(*PlanOpGroupBy); ok {
			group = g
		}
		return true
	})
	require.NotNil(t, group)
	assert.Len(t, group.GroupByExprs, 1)
	require.Len(t, op.Schema(), 2)
}

func TestGroupByExpression(t *testing.T) {
	p := newTestPlanner(t)

	// grouping by an expression makes exactly that expression referable
	stmt := tSelect([]*parser.ResultColumn{
		tRC(tCall("upper", tCol("region"))),
		tRC(tCall("count", tCol("id"))),
	}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCall("upper", tCol("region"))}
	compile(t, p, stmt)

	// the bare column is not grouped even though the expression over it is
	stmt = tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCall("upper", tCol("region"))}
	compileErr(t, p, stmt, sql.ErrUnknownReference)
}

func TestHaving(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{
		tRC(tCol("region")),
		tRC(tCall("sum", tCol("amount"))),
	}, tTable("orders"))
	stmt.GroupByExprs = []parser.Expr{tCol("region")}
	stmt.HavingExpr = tBin(tCall("sum", tCol("amount")), parser.GT, tInt("100"))
	op := compile(t, p, stmt)

	havings := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpHaving)
		return ok
	})
	assert.Equal(t, 1, havings)

	// having must be boolean
	stmt.HavingExpr = tCall("sum", tCol("amount"))
	compileErr(t, p, stmt, sql.ErrBooleanExpressionExpected)

	// having cannot reach ungrouped source columns
	stmt.HavingExpr = tBin(tCol("id"), parser.GT, tInt("1"))
	compileErr(t, p, stmt, sql.ErrUnknownReference)
}

func TestHavingWithoutGroupBy(t *testing.T) {
	p := newTestPlanner(t)

	// having alone implies a single group over the whole input
	call := tCall("count")
	call.Star = tpos
	stmt := tSelect([]*parser.ResultColumn{tRC(tCall("sum", tCol("amount")))}, tTable("orders"))
	stmt.HavingExpr = tBin(call, parser.GT, tInt("1"))
	op := compile(t, p, stmt)

	groups := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpGroupBy)
		return ok
	})
	assert.Equal(t, 1, groups)
}

func TestDistinct(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, tTable("orders"))
	stmt.Distinct = tpos
	op := compile(t, p, stmt)

	distincts := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpDistinct)
		return ok
	})
	assert.Equal(t, 1, distincts)
}

func TestWhereFilter(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	stmt.WhereExpr = tBin(tCol("amount"), parser.GT, tInt("10"))
	op := compile(t, p, stmt)

	filters := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpFilter)
		return ok
	})
	assert.Equal(t, 1, filters)

	// a non boolean where is rejected
	stmt.WhereExpr = tCol("amount")
	compileErr(t, p, stmt, sql.ErrBooleanExpressionExpected)
}

func TestExistsBecomesSemiJoin(t *testing.T) {
	p := newTestPlanner(t)

	sub := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("customers"))
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	stmt.WhereExpr = &parser.Exists{Exists: tpos, Select: sub}
	op := compile(t, p, stmt)

	require.Len(t, findJoins(op, joinTypeSemi), 1)

	// the semi join narrows nothing away from the outer schema
	assert.Equal(t, 1, len(op.Schema()))
}

func TestNotExistsBecomesAntiJoin(t *testing.T) {
	p := newTestPlanner(t)

	sub := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("customers"))
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	stmt.WhereExpr = &parser.Exists{Not: tpos, Exists: tpos, Select: sub}
	op := compile(t, p, stmt)

	require.Len(t, findJoins(op, joinTypeAnti), 1)
}

func TestInSubqueryBecomesSemiJoin(t *testing.T) {
	p := newTestPlanner(t)

	sub := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("customers"))
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, tTable("orders"))
	stmt.WhereExpr = &parser.BinaryExpr{X: tCol("id"), OpPos: tpos, Op: parser.IN, Y: sub}
	op := compile(t, p, stmt)

	joins := findJoins(op, joinTypeSemi)
	require.Len(t, joins, 1)
	require.NotNil(t, joins[0].cond)

	// the remaining conjunct still becomes a filter
	sub = tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("customers"))
	stmt = tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, tTable("orders"))
	stmt.WhereExpr = tBin(
		&parser.BinaryExpr{X: tCol("id"), OpPos: tpos, Op: parser.NOTIN, Y: sub},
		parser.AND,
		tBin(tCol("amount"), parser.GT, tInt("5")),
	)
	op = compile(t, p, stmt)
	require.Len(t, findJoins(op, joinTypeAnti), 1)
	filters := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpFilter)
		return ok
	})
	assert.Equal(t, 1, filters)
}

func TestCorrelatedScalarSubqueryIsHoisted(t *testing.T) {
	p := newTestPlanner(t)

	// the inner where reaches the outer orders relation
	sub := tSelect([]*parser.ResultColumn{tRC(tCol("name"))}, tTable("customers"))
	sub.WhereExpr = tBin(tQual("customers", "id"), parser.EQ, tQual("orders", "id"))

	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(sub)}, tTable("orders"))
	op := compile(t, p, stmt)

	require.Len(t, findJoins(op, joinTypeLeftSingle), 1)

	schema := op.Schema()
	require.Len(t, schema, 2)
	assert.Equal(t, "string", schema[1].Type.TypeDescription())
}

func TestUncorrelatedScalarSubqueryStaysAnExpression(t *testing.T) {
	p := newTestPlanner(t)

	sub := tSelect([]*parser.ResultColumn{tRC(tCall("max", tCol("id")))}, tTable("customers"))
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(sub)}, tTable("orders"))
	op := compile(t, p, stmt)

	assert.Empty(t, findJoins(op, joinTypeLeftSingle))
}

func TestLeftJoin(t *testing.T) {
	p := newTestPlanner(t)

	join := &parser.JoinClause{
		X:          tTable("orders"),
		Operator:   &parser.JoinOperator{OpPos: tpos, Kind: parser.JoinKindLeft},
		Y:          tTable("customers"),
		Constraint: &parser.OnConstraint{On: tpos, X: tBin(tQual("orders", "id"), parser.EQ, tQual("customers", "id"))},
	}
	stmt := tSelect([]*parser.ResultColumn{tStar()}, join)
	op := compile(t, p, stmt)

	require.Len(t, findJoins(op, joinTypeLeft), 1)
	assert.Len(t, op.Schema(), 5)

	// a non boolean on condition is rejected
	join.Constraint = &parser.OnConstraint{On: tpos, X: tCol("amount")}
	compileErr(t, p, stmt, sql.ErrBooleanExpressionExpected)
}

func TestDerivedTable(t *testing.T) {
	p := newTestPlanner(t)

	inner := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRCAlias(tBin(tCol("amount"), parser.STAR, tInt("2")), "doubled")}, tTable("orders"))
	source := &parser.ParenSource{Lparen: tpos, X: inner, Alias: tIdent("d")}
	stmt := tSelect([]*parser.ResultColumn{tRC(tQual("d", "doubled"))}, source)
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 1)
	assert.Equal(t, "doubled", schema[0].ColumnName)
	assert.Equal(t, "float64", schema[0].Type.TypeDescription())

	// a derived table needs an alias
	source = &parser.ParenSource{Lparen: tpos, X: inner}
	stmt = tSelect([]*parser.ResultColumn{tStar()}, source)
	compileErr(t, p, stmt, sql.ErrUnsupportedConstruct)
}

func TestDerivedTableCannotSeeOuterColumns(t *testing.T) {
	p := newTestPlanner(t)

	// a from clause subquery is planned in isolation, so a reference to
	// a sibling relation does not resolve
	inner := tSelect([]*parser.ResultColumn{tRC(tQual("orders", "id"))}, tTable("customers"))
	derived := &parser.ParenSource{Lparen: tpos, X: inner, Alias: tIdent("d")}
	stmt := tSelect([]*parser.ResultColumn{tStar()}, tJoin(parser.JoinKindCross, tTable("orders"), derived, nil))
	compileErr(t, p, stmt, sql.ErrUnknownReference)
}

func TestOrderBy(t *testing.T) {
	p := newTestPlanner(t)

	build := func() *parser.SelectStatement {
		return tSelect([]*parser.ResultColumn{
			tRC(tCol("region")),
			tRCAlias(tBin(tCol("amount"), parser.STAR, tInt("2")), "doubled"),
		}, tTable("orders"))
	}

	// by output alias
	stmt := build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tIdent("doubled"), Desc: tpos}}
	op := compile(t, p, stmt)
	orders := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpOrderBy)
		return ok
	})
	assert.Equal(t, 1, orders)

	// by one based position
	stmt = build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tInt("1")}}
	compile(t, p, stmt)

	// position out of range
	stmt = build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tInt("3")}}
	compileErr(t, p, stmt, sql.ErrUnknownReference)

	// by an expression the select list computes
	stmt = build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tBin(tCol("amount"), parser.STAR, tInt("2"))}}
	compile(t, p, stmt)

	// an expression the select list does not compute
	stmt = build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tBin(tCol("amount"), parser.STAR, tInt("3"))}}
	compileErr(t, p, stmt, sql.ErrUnknownReference)

	// a name the output does not carry
	stmt = build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tIdent("id")}}
	compileErr(t, p, stmt, sql.ErrUnknownReference)
}

func TestOrderByProjectedAggregate(t *testing.T) {
	p := newTestPlanner(t)

	build := func() *parser.SelectStatement {
		stmt := tSelect([]*parser.ResultColumn{
			tRC(tCol("region")),
			tRC(tCall("sum", tCol("amount"))),
		}, tTable("orders"))
		stmt.GroupByExprs = []parser.Expr{tCol("region")}
		return stmt
	}

	// ordering by an aggregate the select list computes
	stmt := build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tCall("sum", tCol("amount")), Desc: tpos}}
	op := compile(t, p, stmt)
	orders := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpOrderBy)
		return ok
	})
	assert.Equal(t, 1, orders)

	// an aggregate the select list does not compute is unreachable
	stmt = build()
	stmt.OrderingTerms = []*parser.OrderingTerm{{X: tCall("sum", tCol("id"))}}
	compileErr(t, p, stmt, sql.ErrUnknownReference)
}

func TestLimitOffset(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	stmt.LimitExpr = tInt("10")
	stmt.OffsetExpr = tInt("20")
	op := compile(t, p, stmt)

	var limit *PlanOpLimit
	InspectPlan(op, func(node types.PlanOperator) bool {
		if l, ok := node.(*PlanOpLimit); ok {
			limit = l
		}
		return true
	})
	require.NotNil(t, limit)
	require.NotNil(t, limit.LimitExpr)
	require.NotNil(t, limit.OffsetExpr)

	// limit must be a non negative integer literal
	stmt.LimitExpr = &parser.UnaryExpr{OpPos: tpos, Op: parser.MINUS, X: tInt("1")}
	compileErr(t, p, stmt, sql.ErrIntegerExpressionExpected)

	stmt.LimitExpr = tCol("id")
	compileErr(t, p, stmt, sql.ErrIntegerExpressionExpected)
}

func TestWindowFunction(t *testing.T) {
	p := newTestPlanner(t)

	call := tCall("row_number")
	call.Over = &parser.WindowDef{
		Over:        tpos,
		PartitionBy: []parser.Expr{tCol("region")},
		OrderBy:     []*parser.OrderingTerm{{X: tCol("amount"), Desc: tpos}},
	}
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRCAlias(call, "rank")}, tTable("orders"))
	op := compile(t, p, stmt)

	windows := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpWindow)
		return ok
	})
	assert.Equal(t, 1, windows)

	schema := op.Schema()
	require.Len(t, schema, 2)
	assert.Equal(t, "rank", schema[1].ColumnName)
	assert.Equal(t, "int64", schema[1].Type.TypeDescription())
}

func TestAggregateOverWindow(t *testing.T) {
	p := newTestPlanner(t)

	// an aggregate with an over clause computes over the window, not the
	// group, and is legal without grouping
	call := tCall("sum", tCol("amount"))
	call.Over = &parser.WindowDef{Over: tpos, PartitionBy: []parser.Expr{tCol("region")}}
	stmt := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(call)}, tTable("orders"))
	op := compile(t, p, stmt)

	groups := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpGroupBy)
		return ok
	})
	assert.Equal(t, 0, groups)
	windows := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpWindow)
		return ok
	})
	assert.Equal(t, 1, windows)
}

func TestSelectWithoutFrom(t *testing.T) {
	p := newTestPlanner(t)

	stmt := tSelect([]*parser.ResultColumn{tRC(tBin(tInt("1"), parser.PLUS, tInt("2")))}, nil)
	op := compile(t, p, stmt)

	nulls := countOps(op, func(node types.PlanOperator) bool {
		_, ok := node.(*PlanOpNullTable)
		return ok
	})
	assert.Equal(t, 1, nulls)
	require.Len(t, op.Schema(), 1)
}

func TestTableDotStar(t *testing.T) {
	p := newTestPlanner(t)

	join := tJoin(parser.JoinKindCross, tTable("orders"), tTable("customers"), nil)
	stmt := tSelect([]*parser.ResultColumn{
		{Expr: &parser.QualifiedRef{Table: tIdent("customers"), Star: tpos}},
	}, join)
	op := compile(t, p, stmt)

	schema := op.Schema()
	require.Len(t, schema, 2)
	assert.Equal(t, "customers", schema[0].RelationName)
}
