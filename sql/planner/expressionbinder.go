package planner

import (
	"context"
	"strings"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// bindContext tracks what kinds of expressions are legal at the current
// binding site and collects the aggregate and window calls found along the
// way so the select compiler can build the grouping operators.
type bindContext struct {
	aggregatesAllowed bool
	windowsAllowed    bool
	inAggregate       bool

	aggregates []types.PlanExpression
	windows    []types.PlanExpression
}

func newBindContext() *bindContext {
	return &bindContext{}
}

// addAggregate registers an aggregate call, reusing an existing identical
// one so that repeated uses of the same aggregate share a single output
// column.
func (b *bindContext) addAggregate(agg types.PlanExpression) types.PlanExpression {
	for _, existing := range b.aggregates {
		if existing.String() == agg.String() {
			return existing
		}
	}
	b.aggregates = append(b.aggregates, agg)
	return agg
}

func (b *bindContext) addWindow(window types.PlanExpression) types.PlanExpression {
	for _, existing := range b.windows {
		if existing.String() == window.String() {
			return existing
		}
	}
	b.windows = append(b.windows, window)
	return window
}

// resolveColumn resolves a column reference against the scope stack and
// tracks the outermost frame touched, which is how subquery compilation
// detects correlation.
func (p *StatementPlanner) resolveColumn(qualifier string, name string, pos parser.Pos) (*qualifiedRefPlanExpression, error) {
	col, level, err := p.scopes.resolve(qualifier, name, pos)
	if err != nil {
		return nil, err
	}
	absolute := len(p.scopes.frames) - 1 - level
	if absolute < p.minResolvedFrame {
		p.minResolvedFrame = absolute
	}
	ref := newQualifiedRefPlanExpression(col.relationName, col.columnName, col.columnIndex, level, col.dataType)
	ref.pos = pos
	return ref, nil
}

// bindExpr binds an AST expression bottom-up, producing a typed plan
// expression. Implicit widening casts are inserted as operand types are
// reconciled; a conversion that would lose information is an error, never
// an implicit cast.
func (p *StatementPlanner) bindExpr(ctx context.Context, expr parser.Expr, bctx *bindContext) (types.PlanExpression, error) {
	if err := p.enterNestedPlan(); err != nil {
		return nil, err
	}
	defer p.leaveNestedPlan()

	switch expr := expr.(type) {
	case *parser.Ident:
		return p.resolveColumn("", expr.Name, expr.NamePos)

	case *parser.QualifiedRef:
		if expr.Star.IsValid() {
			return nil, sql.NewErrUnsupportedConstruct(expr.Star.Line, expr.Star.Column, "wildcard outside a select list")
		}
		return p.resolveColumn(parser.IdentName(expr.Table), expr.Column.Name, expr.Column.NamePos)

	case *parser.IntegerLit:
		value, dataType, err := fitIntegerLiteral(expr)
		if err != nil {
			return nil, err
		}
		return newIntLiteralPlanExpression(value, dataType), nil

	case *parser.FloatLit:
		return newFloatLiteralPlanExpression(expr.Value), nil

	case *parser.StringLit:
		return newStringLiteralPlanExpression(expr.Value), nil

	case *parser.BoolLit:
		return newBoolLiteralPlanExpression(expr.Value), nil

	case *parser.NullLit:
		return newNullLiteralPlanExpression(), nil

	case *parser.ParenExpr:
		return p.bindExpr(ctx, expr.X, bctx)

	case *parser.UnaryExpr:
		return p.bindUnaryExpr(ctx, expr, bctx)

	case *parser.BinaryExpr:
		return p.bindBinaryExpr(ctx, expr, bctx)

	case *parser.Call:
		return p.bindCall(ctx, expr, bctx)

	case *parser.CastExpr:
		return p.bindCastExpr(ctx, expr, bctx)

	case *parser.CaseExpr:
		return p.bindCaseExpr(ctx, expr, bctx)

	case *parser.Exists:
		op, correlated, err := p.compileSubquery(ctx, expr.Select)
		if err != nil {
			return nil, err
		}
		var result types.PlanExpression = newSubqueryPlanExpression(op, subqueryModeExists, correlated, parser.NewDataTypeBool())
		if expr.Not.IsValid() {
			result = newUnaryOpPlanExpression(parser.NOT, result, parser.NewDataTypeBool())
		}
		return result, nil

	case *parser.SelectStatement:
		op, correlated, err := p.compileSubquery(ctx, expr)
		if err != nil {
			return nil, err
		}
		schema := op.Schema()
		if len(schema) != 1 {
			return nil, sql.NewErrSingleColumnExpected(expr.Select.Line, expr.Select.Column)
		}
		return newSubqueryPlanExpression(op, subqueryModeScalar, correlated, schema[0].Type), nil

	default:
		return nil, sql.NewErrInternalf("unexpected expression type '%T'", expr)
	}
}

func (p *StatementPlanner) bindUnaryExpr(ctx context.Context, expr *parser.UnaryExpr, bctx *bindContext) (types.PlanExpression, error) {
	rhs, err := p.bindExpr(ctx, expr.X, bctx)
	if err != nil {
		return nil, err
	}
	pos := expr.OpPos
	switch expr.Op {
	case parser.NOT:
		if !typeIsBool(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithLogicalOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		return newUnaryOpPlanExpression(expr.Op, rhs, parser.NewDataTypeBool()), nil
	case parser.PLUS, parser.MINUS:
		if !typeIsNumeric(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithArithmeticOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		return newUnaryOpPlanExpression(expr.Op, rhs, rhs.Type()), nil
	case parser.BITNOT:
		if !typeIsInteger(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithBitwiseOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		return newUnaryOpPlanExpression(expr.Op, rhs, rhs.Type()), nil
	default:
		return nil, sql.NewErrInternalf("unexpected unary operator '%s'", expr.Op.String())
	}
}

func (p *StatementPlanner) bindBinaryExpr(ctx context.Context, expr *parser.BinaryExpr, bctx *bindContext) (types.PlanExpression, error) {
	pos := expr.OpPos

	switch expr.Op {
	case parser.IN, parser.NOTIN:
		return p.bindInExpr(ctx, expr, bctx)
	case parser.BETWEEN, parser.NOTBETWEEN:
		return p.bindBetweenExpr(ctx, expr, bctx)
	}

	lhs, err := p.bindExpr(ctx, expr.X, bctx)
	if err != nil {
		return nil, err
	}
	rhs, err := p.bindExpr(ctx, expr.Y, bctx)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case parser.AND, parser.OR:
		if !typeIsBool(lhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithLogicalOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
		}
		if !typeIsBool(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithLogicalOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		return newBinOpPlanExpression(lhs, expr.Op, rhs, parser.NewDataTypeBool()), nil

	case parser.EQ, parser.NE, parser.IS, parser.ISNOT:
		common := typesCoerced(lhs.Type(), rhs.Type())
		if common == nil {
			return nil, sql.NewErrTypeMismatch(pos.Line, pos.Column, lhs.Type().TypeDescription(), rhs.Type().TypeDescription())
		}
		lhs, rhs = coercePair(lhs, rhs, common)
		return newBinOpPlanExpression(lhs, expr.Op, rhs, parser.NewDataTypeBool()), nil

	case parser.LT, parser.LE, parser.GT, parser.GE:
		if !typeIsComparable(lhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithComparisonOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
		}
		if !typeIsComparable(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithComparisonOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		common := typesCoerced(lhs.Type(), rhs.Type())
		if common == nil {
			return nil, sql.NewErrTypeMismatch(pos.Line, pos.Column, lhs.Type().TypeDescription(), rhs.Type().TypeDescription())
		}
		lhs, rhs = coercePair(lhs, rhs, common)
		return newBinOpPlanExpression(lhs, expr.Op, rhs, parser.NewDataTypeBool()), nil

	case parser.PLUS, parser.MINUS, parser.STAR, parser.SLASH, parser.REM:
		if !typeIsNumeric(lhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithArithmeticOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
		}
		if !typeIsNumeric(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithArithmeticOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		common := typesCoerced(lhs.Type(), rhs.Type())
		if common == nil {
			return nil, sql.NewErrTypeMismatch(pos.Line, pos.Column, lhs.Type().TypeDescription(), rhs.Type().TypeDescription())
		}
		lhs, rhs = coercePair(lhs, rhs, common)
		return newBinOpPlanExpression(lhs, expr.Op, rhs, common), nil

	case parser.BITAND, parser.BITOR, parser.LSHIFT, parser.RSHIFT:
		if !typeIsInteger(lhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithBitwiseOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
		}
		if !typeIsInteger(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithBitwiseOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		common := typesCoerced(lhs.Type(), rhs.Type())
		lhs, rhs = coercePair(lhs, rhs, common)
		return newBinOpPlanExpression(lhs, expr.Op, rhs, common), nil

	case parser.CONCAT:
		if !typeIsString(lhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithConcatOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
		}
		if !typeIsString(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithConcatOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		return newBinOpPlanExpression(lhs, expr.Op, rhs, parser.NewDataTypeString()), nil

	case parser.LIKE, parser.NOTLIKE:
		if !typeIsString(lhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithLikeOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
		}
		if !typeIsString(rhs.Type()) {
			return nil, sql.NewErrTypeIncompatibleWithLikeOperator(pos.Line, pos.Column, rhs.Type().TypeDescription())
		}
		return newBinOpPlanExpression(lhs, expr.Op, rhs, parser.NewDataTypeBool()), nil

	default:
		return nil, sql.NewErrInternalf("unexpected binary operator '%s'", expr.Op.String())
	}
}

func (p *StatementPlanner) bindInExpr(ctx context.Context, expr *parser.BinaryExpr, bctx *bindContext) (types.PlanExpression, error) {
	pos := expr.OpPos
	lhs, err := p.bindExpr(ctx, expr.X, bctx)
	if err != nil {
		return nil, err
	}

	switch rhs := expr.Y.(type) {
	case *parser.ExprList:
		items := make([]types.PlanExpression, 0, len(rhs.Exprs))
		common := lhs.Type()
		for _, itemExpr := range rhs.Exprs {
			item, err := p.bindExpr(ctx, itemExpr, bctx)
			if err != nil {
				return nil, err
			}
			common = typesCoerced(common, item.Type())
			if common == nil {
				return nil, sql.NewErrTypeMismatch(pos.Line, pos.Column, lhs.Type().TypeDescription(), item.Type().TypeDescription())
			}
			items = append(items, item)
		}
		for i, item := range items {
			items[i] = coerceTo(item, common)
		}
		lhs = coerceTo(lhs, common)
		return newBinOpPlanExpression(lhs, expr.Op, newExprListPlanExpression(items), parser.NewDataTypeBool()), nil

	case *parser.SelectStatement:
		op, correlated, err := p.compileSubquery(ctx, rhs)
		if err != nil {
			return nil, err
		}
		schema := op.Schema()
		if len(schema) != 1 {
			return nil, sql.NewErrSingleColumnExpected(rhs.Select.Line, rhs.Select.Column)
		}
		common := typesCoerced(lhs.Type(), schema[0].Type)
		if common == nil {
			return nil, sql.NewErrTypeMismatch(pos.Line, pos.Column, lhs.Type().TypeDescription(), schema[0].Type.TypeDescription())
		}
		lhs = coerceTo(lhs, common)
		subquery := newSubqueryPlanExpression(op, subqueryModeIn, correlated, schema[0].Type)
		return newBinOpPlanExpression(lhs, expr.Op, subquery, parser.NewDataTypeBool()), nil

	default:
		return nil, sql.NewErrInternalf("unexpected IN operand '%T'", expr.Y)
	}
}

func (p *StatementPlanner) bindBetweenExpr(ctx context.Context, expr *parser.BinaryExpr, bctx *bindContext) (types.PlanExpression, error) {
	pos := expr.OpPos
	rng, ok := expr.Y.(*parser.Range)
	if !ok {
		return nil, sql.NewErrInternalf("unexpected BETWEEN operand '%T'", expr.Y)
	}
	lhs, err := p.bindExpr(ctx, expr.X, bctx)
	if err != nil {
		return nil, err
	}
	lower, err := p.bindExpr(ctx, rng.X, bctx)
	if err != nil {
		return nil, err
	}
	upper, err := p.bindExpr(ctx, rng.Y, bctx)
	if err != nil {
		return nil, err
	}
	if !typeIsComparable(lhs.Type()) {
		return nil, sql.NewErrTypeIncompatibleWithBetweenOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
	}
	common := typesCoerced(lhs.Type(), lower.Type())
	if common != nil {
		common = typesCoerced(common, upper.Type())
	}
	if common == nil {
		return nil, sql.NewErrTypeIncompatibleWithBetweenOperator(pos.Line, pos.Column, lhs.Type().TypeDescription())
	}
	lhs = coerceTo(lhs, common)
	lower = coerceTo(lower, common)
	upper = coerceTo(upper, common)
	rangeExpr := newRangePlanExpression(lower, upper, common)
	return newBinOpPlanExpression(lhs, expr.Op, rangeExpr, parser.NewDataTypeBool()), nil
}

func (p *StatementPlanner) bindCall(ctx context.Context, call *parser.Call, bctx *bindContext) (types.PlanExpression, error) {
	name := strings.ToLower(call.Name.Name)
	pos := call.Name.NamePos

	// count(*) takes no argument to type check
	if call.Star.IsValid() {
		if name != "count" {
			return nil, sql.NewErrCallParameterCountMismatch(pos.Line, pos.Column, name, 1, 0)
		}
		if call.Over != nil {
			return p.bindWindowCall(ctx, call, nil, parser.NewDataTypeInt64(), bctx)
		}
		if !bctx.aggregatesAllowed || bctx.inAggregate {
			return nil, sql.NewErrMisplacedAggregate(pos.Line, pos.Column, name)
		}
		agg := newAggregateCallPlanExpression(name, nil, false, true, parser.NewDataTypeInt64())
		return bctx.addAggregate(agg), nil
	}

	signatures := p.functions.SignaturesFor(name)
	if signatures == nil {
		return nil, sql.NewErrCallUnknownFunction(pos.Line, pos.Column, name)
	}
	isAggregate := signatures[0].IsAggregate
	isWindowOnly := signatures[0].IsWindow

	if call.Distinct.IsValid() && !isAggregate {
		return nil, sql.NewErrUnsupportedConstruct(call.Distinct.Line, call.Distinct.Column, "DISTINCT in a non-aggregate call")
	}
	if isWindowOnly && call.Over == nil {
		return nil, sql.NewErrMisplacedWindowFunction(pos.Line, pos.Column, name)
	}
	if call.Over != nil && !isAggregate && !isWindowOnly {
		return nil, sql.NewErrUnsupportedConstruct(call.Over.Over.Line, call.Over.Over.Column, "OVER clause on a scalar function")
	}

	savedInAggregate := bctx.inAggregate
	if isAggregate && call.Over == nil {
		if !bctx.aggregatesAllowed || bctx.inAggregate {
			return nil, sql.NewErrMisplacedAggregate(pos.Line, pos.Column, name)
		}
		bctx.inAggregate = true
	}
	args := make([]types.PlanExpression, 0, len(call.Args))
	for _, argExpr := range call.Args {
		arg, err := p.bindExpr(ctx, argExpr, bctx)
		if err != nil {
			bctx.inAggregate = savedInAggregate
			return nil, err
		}
		args = append(args, arg)
	}
	bctx.inAggregate = savedInAggregate

	signature, coerced, err := p.resolveCall(name, pos, args...)
	if err != nil {
		return nil, err
	}

	if call.Over != nil {
		return p.bindWindowCall(ctx, call, coerced, signature.ReturnType, bctx)
	}
	if isAggregate {
		agg := newAggregateCallPlanExpression(name, coerced, call.Distinct.IsValid(), false, signature.ReturnType)
		return bctx.addAggregate(agg), nil
	}
	return newCallPlanExpression(name, coerced, signature.ReturnType), nil
}

func (p *StatementPlanner) bindWindowCall(ctx context.Context, call *parser.Call, args []types.PlanExpression, returnType parser.ExprDataType, bctx *bindContext) (types.PlanExpression, error) {
	name := strings.ToLower(call.Name.Name)
	pos := call.Over.Over
	if !bctx.windowsAllowed {
		return nil, sql.NewErrMisplacedWindowFunction(pos.Line, pos.Column, name)
	}

	partitionBy := make([]types.PlanExpression, 0, len(call.Over.PartitionBy))
	for _, partExpr := range call.Over.PartitionBy {
		part, err := p.bindExpr(ctx, partExpr, bctx)
		if err != nil {
			return nil, err
		}
		partitionBy = append(partitionBy, part)
	}
	orderBy := make([]*orderByExpression, 0, len(call.Over.OrderBy))
	for _, term := range call.Over.OrderBy {
		termExpr, err := p.bindExpr(ctx, term.X, bctx)
		if err != nil {
			return nil, err
		}
		order := sortOrderAsc
		if term.Desc.IsValid() {
			order = sortOrderDesc
		}
		orderBy = append(orderBy, &orderByExpression{expr: termExpr, order: order})
	}
	window := newWindowCallPlanExpression(name, args, partitionBy, orderBy, returnType)
	return bctx.addWindow(window), nil
}

func (p *StatementPlanner) bindCastExpr(ctx context.Context, expr *parser.CastExpr, bctx *bindContext) (types.PlanExpression, error) {
	child, err := p.bindExpr(ctx, expr.X, bctx)
	if err != nil {
		return nil, err
	}
	targetType, err := dataTypeFromParserType(expr.Type)
	if err != nil {
		return nil, err
	}
	if !typeCanBeCast(child.Type(), targetType) {
		return nil, sql.NewErrInvalidCast(expr.Cast.Line, expr.Cast.Column, child.Type().TypeDescription(), targetType.TypeDescription())
	}
	return newCastPlanExpression(child, targetType, false), nil
}

func (p *StatementPlanner) bindCaseExpr(ctx context.Context, expr *parser.CaseExpr, bctx *bindContext) (types.PlanExpression, error) {
	var operand types.PlanExpression
	var err error
	if expr.Operand != nil {
		operand, err = p.bindExpr(ctx, expr.Operand, bctx)
		if err != nil {
			return nil, err
		}
	}

	blocks := make([]*caseBlockPlanExpression, 0, len(expr.Blocks))
	bodies := make([]types.PlanExpression, 0, len(expr.Blocks)+1)
	for _, block := range expr.Blocks {
		condition, err := p.bindExpr(ctx, block.Condition, bctx)
		if err != nil {
			return nil, err
		}
		if operand != nil {
			// operand form becomes an equality test per arm
			common := typesCoerced(operand.Type(), condition.Type())
			if common == nil {
				return nil, sql.NewErrTypeMismatch(block.When.Line, block.When.Column, operand.Type().TypeDescription(), condition.Type().TypeDescription())
			}
			lhs, rhs := coercePair(operand, condition, common)
			condition = newBinOpPlanExpression(lhs, parser.EQ, rhs, parser.NewDataTypeBool())
		} else if !typeIsBool(condition.Type()) {
			return nil, sql.NewErrBooleanExpressionExpected(block.When.Line, block.When.Column)
		}
		body, err := p.bindExpr(ctx, block.Body, bctx)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, newCaseBlockPlanExpression(condition, body))
		bodies = append(bodies, body)
	}

	var elseExpr types.PlanExpression
	if expr.ElseExpr != nil {
		elseExpr, err = p.bindExpr(ctx, expr.ElseExpr, bctx)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, elseExpr)
	}

	resultType := bodies[0].Type()
	for _, body := range bodies[1:] {
		resultType = typesCoerced(resultType, body.Type())
		if resultType == nil {
			return nil, sql.NewErrTypeMismatch(expr.Case.Line, expr.Case.Column, bodies[0].Type().TypeDescription(), body.Type().TypeDescription())
		}
	}
	coercedBlocks := make([]types.PlanExpression, 0, len(blocks))
	for _, block := range blocks {
		coercedBlocks = append(coercedBlocks, newCaseBlockPlanExpression(block.condition, coerceTo(block.body, resultType)))
	}
	if elseExpr != nil {
		elseExpr = coerceTo(elseExpr, resultType)
	}
	return newCasePlanExpression(coercedBlocks, elseExpr, resultType), nil
}

// compileSubquery compiles a nested select and reports whether it is
// correlated with an enclosing query block.
func (p *StatementPlanner) compileSubquery(ctx context.Context, stmt *parser.SelectStatement) (types.PlanOperator, bool, error) {
	base := len(p.scopes.frames)
	saved := p.minResolvedFrame
	p.minResolvedFrame = base

	op, err := p.compileSelectStatement(ctx, stmt)
	correlated := p.minResolvedFrame < base
	if saved < p.minResolvedFrame {
		p.minResolvedFrame = saved
	}
	if err != nil {
		return nil, false, err
	}
	return op, correlated, nil
}

// coerceTo wraps an expression in an implicit cast when its type differs
// from the target type.
func coerceTo(expr types.PlanExpression, target parser.ExprDataType) types.PlanExpression {
	if expr.Type().TypeDescription() == target.TypeDescription() {
		return expr
	}
	return newCastPlanExpression(expr, target, true)
}

func coercePair(lhs types.PlanExpression, rhs types.PlanExpression, common parser.ExprDataType) (types.PlanExpression, types.PlanExpression) {
	return coerceTo(lhs, common), coerceTo(rhs, common)
}
