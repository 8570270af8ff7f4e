package planner

import (
	"context"
	"strconv"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// compileSelectStatement compiles one select query block. Clauses are
// applied in their logical order regardless of how the statement was
// written: from and joins, where, group by, having, window functions, the
// select list, distinct, order by and finally limit and offset.
func (p *StatementPlanner) compileSelectStatement(ctx context.Context, stmt *parser.SelectStatement) (types.PlanOperator, error) {
	if err := p.enterNestedPlan(); err != nil {
		return nil, err
	}
	defer p.leaveNestedPlan()

	if stmt.With != nil {
		restore, err := p.compileWithClause(ctx, stmt.With)
		if err != nil {
			return nil, err
		}
		defer restore()
	}

	p.scopes.push()
	defer p.scopes.pop()

	child, err := p.compileSource(ctx, stmt.Source)
	if err != nil {
		return nil, err
	}

	if stmt.WhereExpr != nil {
		child, err = p.compileWhere(ctx, child, stmt.WhereExpr)
		if err != nil {
			return nil, err
		}
	}

	// group by keys bind against the sources; aggregates are not legal
	// in them, and a key written twice groups only once
	keyCtx := newBindContext()
	groupKeys := make([]types.PlanExpression, 0, len(stmt.GroupByExprs))
	for _, keyExpr := range stmt.GroupByExprs {
		key, err := p.bindExpr(ctx, keyExpr, keyCtx)
		if err != nil {
			return nil, err
		}
		seen := false
		for _, existing := range groupKeys {
			if existing.String() == key.String() {
				seen = true
				break
			}
		}
		if !seen {
			groupKeys = append(groupKeys, key)
		}
	}

	bctx := newBindContext()
	bctx.aggregatesAllowed = true
	bctx.windowsAllowed = true
	projections, err := p.bindProjections(ctx, stmt, bctx)
	if err != nil {
		return nil, err
	}

	var having types.PlanExpression
	if stmt.HavingExpr != nil {
		bctx.windowsAllowed = false
		having, err = p.bindExpr(ctx, stmt.HavingExpr, bctx)
		if err != nil {
			return nil, err
		}
		if !typeIsBool(having.Type()) {
			return nil, sql.NewErrBooleanExpressionExpected(stmt.HavingExpr.Pos().Line, stmt.HavingExpr.Pos().Column)
		}
	}

	hasGrouping := len(groupKeys) > 0 || len(bctx.aggregates) > 0 || having != nil

	var rebase map[string]*qualifiedRefPlanExpression
	if hasGrouping {
		rebase = groupByRebaseMap(groupKeys, bctx.aggregates)
		child = NewPlanOpGroupBy(p, bctx.aggregates, groupKeys, child)

		for i, projection := range projections {
			projections[i] = rebaseExpr(projection, rebase)
		}
		if having != nil {
			having = rebaseExpr(having, rebase)
			if err := checkFullyRebased(having); err != nil {
				return nil, err
			}
			child = NewPlanOpHaving(p, having, child)
		}
		for _, projection := range projections {
			if err := checkFullyRebased(projection); err != nil {
				return nil, err
			}
		}
	}

	if len(bctx.windows) > 0 {
		baseWidth := len(child.Schema())
		windowExprs := bctx.windows
		if hasGrouping {
			windowExprs = make([]types.PlanExpression, len(bctx.windows))
			for i, window := range bctx.windows {
				windowExprs[i] = rebaseExprChildren(window, rebase)
				if err := checkFullyRebased(windowExprs[i]); err != nil {
					return nil, err
				}
			}
		}
		child = NewPlanOpWindow(p, windowExprs, child)

		// the select list addresses window results by position past the
		// child's columns
		windowRefs := make(map[string]*qualifiedRefPlanExpression)
		for i, window := range bctx.windows {
			windowRefs[window.String()] = newQualifiedRefPlanExpression("", columnNameForExpression(window), baseWidth+i, 0, window.Type())
		}
		for i, projection := range projections {
			projections[i] = rebaseExpr(projection, windowRefs)
		}
	}

	child, projections, err = p.hoistScalarSubqueries(ctx, child, projections)
	if err != nil {
		return nil, err
	}

	projectionOp := NewPlanOpProjection(p, projections, child)
	child = projectionOp

	if stmt.Distinct.IsValid() {
		child = NewPlanOpDistinct(p, child)
	}

	if len(stmt.OrderingTerms) > 0 {
		child, err = p.compileOrderBy(ctx, child, projectionOp, stmt.OrderingTerms)
		if err != nil {
			return nil, err
		}
	}

	if stmt.LimitExpr != nil || stmt.OffsetExpr != nil {
		child, err = p.compileLimit(ctx, child, stmt.LimitExpr, stmt.OffsetExpr)
		if err != nil {
			return nil, err
		}
	}

	return child, nil
}

// compileSource compiles the from clause, registering every relation it
// finds in the current scope frame as it goes.
func (p *StatementPlanner) compileSource(ctx context.Context, source parser.Source) (types.PlanOperator, error) {
	switch source := source.(type) {
	case nil:
		return NewPlanOpNullTable(), nil

	case *parser.QualifiedTableName:
		op, err := p.resolveRelation(ctx, source)
		if err != nil {
			return nil, err
		}
		name := source.AliasOrName()
		if source.Alias != nil {
			op = NewPlanOpRelAlias(p, source.Alias.Name, op)
		}
		if err := p.scopes.addRelation(name, op.Schema(), source.Name.NamePos); err != nil {
			return nil, err
		}
		return op, nil

	case *parser.JoinClause:
		return p.compileJoin(ctx, source)

	case *parser.ParenSource:
		if sel, ok := source.X.(*parser.SelectStatement); ok {
			return p.compileDerivedTable(ctx, sel, source.Alias, source.Lparen)
		}
		if source.Alias != nil {
			return nil, sql.NewErrUnsupportedConstruct(source.Alias.NamePos.Line, source.Alias.NamePos.Column, "alias on a parenthesized join")
		}
		return p.compileSource(ctx, source.X)

	case *parser.SelectStatement:
		return p.compileDerivedTable(ctx, source, nil, source.Select)

	default:
		return nil, sql.NewErrInternalf("unexpected source type '%T'", source)
	}
}

func (p *StatementPlanner) compileJoin(ctx context.Context, join *parser.JoinClause) (types.PlanOperator, error) {
	top, err := p.compileSource(ctx, join.X)
	if err != nil {
		return nil, err
	}
	bottom, err := p.compileSource(ctx, join.Y)
	if err != nil {
		return nil, err
	}

	var jointype joinType
	switch join.Operator.Kind {
	case parser.JoinKindInner:
		jointype = joinTypeInner
	case parser.JoinKindLeft:
		jointype = joinTypeLeft
	case parser.JoinKindCross:
		jointype = joinTypeCross
	default:
		return nil, sql.NewErrInternalf("unexpected join kind '%s'", join.Operator.Kind)
	}

	// the on condition sees both sides, so it binds after both are
	// registered
	var cond types.PlanExpression
	if on, ok := join.Constraint.(*parser.OnConstraint); ok && on != nil {
		cond, err = p.bindExpr(ctx, on.X, newBindContext())
		if err != nil {
			return nil, err
		}
		if !typeIsBool(cond.Type()) {
			return nil, sql.NewErrBooleanExpressionExpected(on.On.Line, on.On.Column)
		}
	}
	return NewPlanOpNestedLoops(p, jointype, cond, top, bottom), nil
}

func (p *StatementPlanner) compileDerivedTable(ctx context.Context, sel *parser.SelectStatement, alias *parser.Ident, pos parser.Pos) (types.PlanOperator, error) {
	if alias == nil {
		return nil, sql.NewErrUnsupportedConstruct(pos.Line, pos.Column, "derived table without an alias")
	}

	// a derived table cannot see the enclosing query block, so it
	// compiles against an empty scope stack
	savedScopes := p.scopes
	savedMin := p.minResolvedFrame
	p.scopes = newScopeStack()
	op, _, err := p.compileSubquery(ctx, sel)
	p.scopes = savedScopes
	p.minResolvedFrame = savedMin
	if err != nil {
		return nil, err
	}
	aliased := NewPlanOpRelAlias(p, alias.Name, op)
	if err := p.scopes.addRelation(alias.Name, aliased.Schema(), alias.NamePos); err != nil {
		return nil, err
	}
	return aliased, nil
}

// compileWhere compiles the where clause. Top level conjuncts that are
// subquery predicates are hoisted into joins: exists becomes a semi join,
// not exists an anti join and in over a subquery a semi join on column
// equality. Whatever remains becomes a filter.
func (p *StatementPlanner) compileWhere(ctx context.Context, child types.PlanOperator, where parser.Expr) (types.PlanOperator, error) {
	var residual types.PlanExpression

	for _, conjunct := range splitOnAnd(where) {
		var err error
		child, residual, err = p.compileConjunct(ctx, child, residual, conjunct)
		if err != nil {
			return nil, err
		}
	}
	if residual != nil {
		if !typeIsBool(residual.Type()) {
			return nil, sql.NewErrBooleanExpressionExpected(where.Pos().Line, where.Pos().Column)
		}
		child = NewPlanOpFilter(p, residual, child)
	}
	return child, nil
}

func (p *StatementPlanner) compileConjunct(ctx context.Context, child types.PlanOperator, residual types.PlanExpression, conjunct parser.Expr) (types.PlanOperator, types.PlanExpression, error) {
	switch expr := unwrapParens(conjunct).(type) {
	case *parser.Exists:
		op, _, err := p.compileSubquery(ctx, expr.Select)
		if err != nil {
			return nil, nil, err
		}
		jointype := joinTypeSemi
		if expr.Not.IsValid() {
			jointype = joinTypeAnti
		}
		return NewPlanOpNestedLoops(p, jointype, nil, child, op), residual, nil

	case *parser.BinaryExpr:
		sub, ok := expr.Y.(*parser.SelectStatement)
		if ok && (expr.Op == parser.IN || expr.Op == parser.NOTIN) {
			lhs, err := p.bindExpr(ctx, expr.X, newBindContext())
			if err != nil {
				return nil, nil, err
			}
			op, _, err := p.compileSubquery(ctx, sub)
			if err != nil {
				return nil, nil, err
			}
			schema := op.Schema()
			if len(schema) != 1 {
				return nil, nil, sql.NewErrSingleColumnExpected(sub.Select.Line, sub.Select.Column)
			}
			common := typesCoerced(lhs.Type(), schema[0].Type)
			if common == nil {
				return nil, nil, sql.NewErrTypeMismatch(expr.OpPos.Line, expr.OpPos.Column, lhs.Type().TypeDescription(), schema[0].Type.TypeDescription())
			}
			rhs := newQualifiedRefPlanExpression(schema[0].RelationName, schema[0].ColumnName, len(child.Schema()), 0, schema[0].Type)
			lhsCoerced, rhsCoerced := coercePair(lhs, rhs, common)
			cond := newBinOpPlanExpression(lhsCoerced, parser.EQ, rhsCoerced, parser.NewDataTypeBool())
			jointype := joinTypeSemi
			if expr.Op == parser.NOTIN {
				jointype = joinTypeAnti
			}
			return NewPlanOpNestedLoops(p, jointype, cond, child, op), residual, nil
		}
	}

	bound, err := p.bindExpr(ctx, conjunct, newBindContext())
	if err != nil {
		return nil, nil, err
	}
	if residual == nil {
		return child, bound, nil
	}
	return child, newBinOpPlanExpression(residual, parser.AND, bound, parser.NewDataTypeBool()), nil
}

// bindProjections binds the select list, expanding wildcards in relation
// registration order.
func (p *StatementPlanner) bindProjections(ctx context.Context, stmt *parser.SelectStatement, bctx *bindContext) ([]types.PlanExpression, error) {
	projections := make([]types.PlanExpression, 0, len(stmt.Columns))
	for _, column := range stmt.Columns {
		switch {
		case column.Star.IsValid():
			frame := p.scopes.top()
			for _, col := range frame.columns() {
				colRef := newQualifiedRefPlanExpression(col.relationName, col.columnName, col.columnIndex, 0, col.dataType)
				colRef.pos = column.Star
				projections = append(projections, colRef)
			}

		default:
			if ref, ok := column.Expr.(*parser.QualifiedRef); ok && ref.Star.IsValid() {
				cols, err := p.scopes.relationColumns(ref.Table.Name, ref.Table.NamePos)
				if err != nil {
					return nil, err
				}
				for _, col := range cols {
					colRef := newQualifiedRefPlanExpression(col.relationName, col.columnName, col.columnIndex, 0, col.dataType)
					colRef.pos = ref.Star
					projections = append(projections, colRef)
				}
				continue
			}
			expr, err := p.bindExpr(ctx, column.Expr, bctx)
			if err != nil {
				return nil, err
			}
			if column.Alias != nil {
				expr = newAliasPlanExpression(column.Alias.Name, expr)
			}
			projections = append(projections, expr)
		}
	}
	return projections, nil
}

// hoistScalarSubqueries turns every correlated scalar subquery in the
// select list into a single row left outer join against the current child
// and replaces the expression with a reference to the joined column.
// Uncorrelated scalar subqueries stay as expressions.
func (p *StatementPlanner) hoistScalarSubqueries(ctx context.Context, child types.PlanOperator, projections []types.PlanExpression) (types.PlanOperator, []types.PlanExpression, error) {
	for i, projection := range projections {
		rewritten, _, err := TransformExpr(projection, func(e types.PlanExpression) (types.PlanExpression, bool, error) {
			sub, ok := e.(*subqueryPlanExpression)
			if !ok || sub.mode != subqueryModeScalar || !sub.correlated {
				return e, true, nil
			}
			schema := sub.op.Schema()
			index := len(child.Schema())
			child = NewPlanOpNestedLoops(p, joinTypeLeftSingle, nil, child, sub.op)
			return newQualifiedRefPlanExpression(schema[0].RelationName, schema[0].ColumnName, index, 0, schema[0].Type), false, nil
		})
		if err != nil {
			return nil, nil, err
		}
		projections[i] = rewritten
	}
	return child, projections, nil
}

// compileOrderBy binds ordering terms against the projected output: an
// output alias or column name, a one based column position, or an
// expression that matches a projected expression.
func (p *StatementPlanner) compileOrderBy(ctx context.Context, child types.PlanOperator, projection *PlanOpProjection, terms []*parser.OrderingTerm) (types.PlanOperator, error) {
	schema := projection.Schema()
	orderByTerms := make([]*orderByExpression, 0, len(terms))

	for _, term := range terms {
		order := sortOrderAsc
		if term.Desc.IsValid() {
			order = sortOrderDesc
		}

		var ref *qualifiedRefPlanExpression
		switch expr := unwrapParens(term.X).(type) {
		case *parser.IntegerLit:
			position, err := strconv.Atoi(expr.Value)
			if err != nil || position < 1 || position > len(schema) {
				return nil, sql.NewErrUnknownReference(expr.ValuePos.Line, expr.ValuePos.Column, expr.Value)
			}
			col := schema[position-1]
			ref = newQualifiedRefPlanExpression(col.RelationName, col.ColumnName, position-1, 0, col.Type)

		case *parser.Ident:
			index, err := findOutputColumn(schema, "", expr.Name, expr.NamePos)
			if err != nil {
				return nil, err
			}
			col := schema[index]
			ref = newQualifiedRefPlanExpression(col.RelationName, col.ColumnName, index, 0, col.Type)

		case *parser.QualifiedRef:
			if expr.Star.IsValid() {
				return nil, sql.NewErrUnsupportedConstruct(expr.Star.Line, expr.Star.Column, "wildcard in ORDER BY")
			}
			index, err := findOutputColumn(schema, parser.IdentName(expr.Table), expr.Column.Name, expr.Column.NamePos)
			if err != nil {
				return nil, err
			}
			col := schema[index]
			ref = newQualifiedRefPlanExpression(col.RelationName, col.ColumnName, index, 0, col.Type)

		default:
			// an arbitrary expression must match something the select
			// list computes, so aggregates and window calls are legal
			// here when the projection carries them
			orderCtx := newBindContext()
			orderCtx.aggregatesAllowed = true
			orderCtx.windowsAllowed = true
			bound, err := p.bindExpr(ctx, term.X, orderCtx)
			if err != nil {
				return nil, err
			}
			index := -1
			for i, proj := range projection.Projections {
				if projectionMatches(proj, bound.String()) {
					index = i
					break
				}
			}
			if index < 0 {
				return nil, sql.NewErrUnknownReference(term.X.Pos().Line, term.X.Pos().Column, bound.String())
			}
			col := schema[index]
			ref = newQualifiedRefPlanExpression(col.RelationName, col.ColumnName, index, 0, col.Type)
		}

		orderByTerms = append(orderByTerms, &orderByExpression{expr: ref, order: order})
	}
	return NewPlanOpOrderBy(p, orderByTerms, child), nil
}

func (p *StatementPlanner) compileLimit(ctx context.Context, child types.PlanOperator, limitExpr parser.Expr, offsetExpr parser.Expr) (types.PlanOperator, error) {
	bindLimitValue := func(expr parser.Expr) (types.PlanExpression, error) {
		if expr == nil {
			return nil, nil
		}
		bound, err := p.bindExpr(ctx, expr, newBindContext())
		if err != nil {
			return nil, err
		}
		lit, ok := bound.(*intLiteralPlanExpression)
		if !ok || lit.value < 0 {
			return nil, sql.NewErrIntegerExpressionExpected(expr.Pos().Line, expr.Pos().Column)
		}
		return lit, nil
	}

	limit, err := bindLimitValue(limitExpr)
	if err != nil {
		return nil, err
	}
	offset, err := bindLimitValue(offsetExpr)
	if err != nil {
		return nil, err
	}
	return NewPlanOpLimit(p, limit, offset, child), nil
}

// groupByRebaseMap maps the rendering of each group key and aggregate to a
// reference into the group by operator's output.
func groupByRebaseMap(groupKeys []types.PlanExpression, aggregates []types.PlanExpression) map[string]*qualifiedRefPlanExpression {
	rebase := make(map[string]*qualifiedRefPlanExpression)
	for i, key := range groupKeys {
		ref := newQualifiedRefPlanExpression(relationNameForExpression(key), columnNameForExpression(key), i, 0, key.Type())
		ref.rebased = true
		rebase[key.String()] = ref
	}
	for i, agg := range aggregates {
		ref := newQualifiedRefPlanExpression("", columnNameForExpression(agg), len(groupKeys)+i, 0, agg.Type())
		ref.rebased = true
		rebase[agg.String()] = ref
	}
	return rebase
}

// rebaseExpr replaces every subexpression whose rendering appears in the
// map with the mapped reference. Matching is outside in, so a grouped
// expression is replaced whole before its operands are considered.
func rebaseExpr(expr types.PlanExpression, rebase map[string]*qualifiedRefPlanExpression) types.PlanExpression {
	if ref, ok := rebase[expr.String()]; ok {
		return ref
	}
	return rebaseExprChildren(expr, rebase)
}

func rebaseExprChildren(expr types.PlanExpression, rebase map[string]*qualifiedRefPlanExpression) types.PlanExpression {
	children := expr.Children()
	if len(children) == 0 {
		return expr
	}
	changed := false
	newChildren := make([]types.PlanExpression, len(children))
	for i, child := range children {
		newChildren[i] = rebaseExpr(child, rebase)
		if newChildren[i] != child {
			changed = true
		}
	}
	if !changed {
		return expr
	}
	rewritten, err := expr.WithChildren(newChildren...)
	if err != nil {
		return expr
	}
	return rewritten
}

// checkFullyRebased fails when an expression still references a source
// column after aggregation; such a column is neither grouped nor
// aggregated and no longer exists above the group by.
func checkFullyRebased(expr types.PlanExpression) error {
	var err error
	InspectExpression(expr, func(e types.PlanExpression) bool {
		if e == nil || err != nil {
			return false
		}
		switch e.(type) {
		case *aggregateCallPlanExpression, *windowCallPlanExpression:
			// aggregate and window internals read rows below this
			// operator and are checked where they are planned
			return false
		}
		if ref, ok := e.(*qualifiedRefPlanExpression); ok {
			if ref.scopeLevel == 0 && !ref.rebased {
				err = sql.NewErrInvalidUngroupedColumnReference(ref.pos.Line, ref.pos.Column, ref.columnName)
				return false
			}
		}
		return true
	})
	return err
}

// findOutputColumn locates a named column in an output schema. ORDER BY
// resolves against what the select list produced, so aliases are visible
// here and shadowed source columns are not.
func findOutputColumn(schema types.Schema, qualifier string, name string, pos parser.Pos) (int, error) {
	index := -1
	for i, col := range schema {
		if col.ColumnName != name {
			continue
		}
		if qualifier != "" && col.RelationName != qualifier {
			continue
		}
		if index >= 0 {
			return -1, sql.NewErrAmbiguousReference(pos.Line, pos.Column, name)
		}
		index = i
	}
	if index < 0 {
		return -1, sql.NewErrUnknownReference(pos.Line, pos.Column, name)
	}
	return index, nil
}

// splitOnAnd flattens a predicate into its top level conjuncts.
func splitOnAnd(expr parser.Expr) []parser.Expr {
	if binary, ok := unwrapParens(expr).(*parser.BinaryExpr); ok && binary.Op == parser.AND {
		return append(splitOnAnd(binary.X), splitOnAnd(binary.Y)...)
	}
	return []parser.Expr{expr}
}

func unwrapParens(expr parser.Expr) parser.Expr {
	for {
		paren, ok := expr.(*parser.ParenExpr)
		if !ok {
			return expr
		}
		expr = paren.X
	}
}

// projectionMatches reports whether a projected expression renders the
// same as the probe, looking through an alias wrapper.
func projectionMatches(projection types.PlanExpression, probe string) bool {
	if alias, ok := projection.(*aliasPlanExpression); ok {
		return alias.expr.String() == probe
	}
	return projection.String() == probe
}
