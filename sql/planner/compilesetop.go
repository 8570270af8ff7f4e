package planner

import (
	"context"
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// compileSetOperationStatement compiles a union, intersect or except. The
// operands must produce the same number of columns and every column pair
// must widen to a common type; output column names come from the left
// operand.
func (p *StatementPlanner) compileSetOperationStatement(ctx context.Context, stmt *parser.SetOperationStatement) (types.PlanOperator, error) {
	if err := p.enterNestedPlan(); err != nil {
		return nil, err
	}
	defer p.leaveNestedPlan()

	left, err := p.compileSetOperand(ctx, stmt.X)
	if err != nil {
		return nil, err
	}
	right, err := p.compileSetOperand(ctx, stmt.Y)
	if err != nil {
		return nil, err
	}

	leftSchema := left.Schema()
	rightSchema := right.Schema()
	pos := stmt.OpPos
	if len(leftSchema) != len(rightSchema) {
		return nil, sql.NewErrIncompatibleSetOperands(pos.Line, pos.Column,
			fmt.Sprintf("operand column counts %d and %d differ", len(leftSchema), len(rightSchema)))
	}

	schema := make(types.Schema, len(leftSchema))
	commonTypes := make([]parser.ExprDataType, len(leftSchema))
	for i := range leftSchema {
		common := typesCoerced(leftSchema[i].Type, rightSchema[i].Type)
		if common == nil {
			return nil, sql.NewErrIncompatibleSetOperands(pos.Line, pos.Column,
				fmt.Sprintf("column %d has types '%s' and '%s'", i+1, leftSchema[i].Type.TypeDescription(), rightSchema[i].Type.TypeDescription()))
		}
		commonTypes[i] = common
		schema[i] = &types.PlannerColumn{
			ColumnName: leftSchema[i].ColumnName,
			Type:       common,
		}
	}

	left = p.castOperandTo(left, commonTypes)
	right = p.castOperandTo(right, commonTypes)

	return NewPlanOpSetOp(p, stmt.Op, stmt.All.IsValid(), schema, left, right), nil
}

func (p *StatementPlanner) compileSetOperand(ctx context.Context, stmt parser.Statement) (types.PlanOperator, error) {
	switch stmt := stmt.(type) {
	case *parser.SelectStatement:
		return p.compileSelectStatement(ctx, stmt)
	case *parser.SetOperationStatement:
		return p.compileSetOperationStatement(ctx, stmt)
	default:
		return nil, sql.NewErrUnsupportedConstruct(stmt.Pos().Line, stmt.Pos().Column, "set operation operand")
	}
}

// castOperandTo wraps an operand in a projection that widens its columns
// to the target types, or returns it untouched when nothing needs casting.
func (p *StatementPlanner) castOperandTo(op types.PlanOperator, targets []parser.ExprDataType) types.PlanOperator {
	schema := op.Schema()
	needsCast := false
	for i, col := range schema {
		if col.Type.TypeDescription() != targets[i].TypeDescription() {
			needsCast = true
			break
		}
	}
	if !needsCast {
		return op
	}
	projections := make([]types.PlanExpression, len(schema))
	for i, col := range schema {
		var expr types.PlanExpression = newQualifiedRefPlanExpression(col.RelationName, col.ColumnName, i, 0, col.Type)
		projections[i] = coerceTo(expr, targets[i])
	}
	return NewPlanOpProjection(p, projections, op)
}
