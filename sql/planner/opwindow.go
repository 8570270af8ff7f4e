package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpWindow evaluates window functions over its input. Its output is
// the child's columns followed by one column per window expression.
type PlanOpWindow struct {
	planner     *StatementPlanner
	ChildOp     types.PlanOperator
	WindowExprs []types.PlanExpression

	warnings []string
}

func NewPlanOpWindow(planner *StatementPlanner, windowExprs []types.PlanExpression, child types.PlanOperator) *PlanOpWindow {
	return &PlanOpWindow{
		planner:     planner,
		WindowExprs: windowExprs,
		ChildOp:     child,
		warnings:    make([]string, 0),
	}
}

func (p *PlanOpWindow) Schema() types.Schema {
	childSchema := p.ChildOp.Schema()
	schema := make(types.Schema, 0, len(childSchema)+len(p.WindowExprs))
	schema = append(schema, childSchema...)
	for _, expr := range p.WindowExprs {
		schema = append(schema, &types.PlannerColumn{
			ColumnName: columnNameForExpression(expr),
			Type:       expr.Type(),
		})
	}
	return schema
}

func (p *PlanOpWindow) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpWindow) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpWindow(p.planner, p.WindowExprs, children[0]), nil
}

func (p *PlanOpWindow) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	windows := make([]interface{}, len(p.WindowExprs))
	for i, expr := range p.WindowExprs {
		windows[i] = expr.Plan()
	}
	result["windowExprs"] = windows
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpWindow) String() string {
	return ""
}

func (p *PlanOpWindow) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpWindow) Warnings() []string {
	return p.warnings
}

func (p *PlanOpWindow) Expressions() []types.PlanExpression {
	return p.WindowExprs
}

func (p *PlanOpWindow) WithUpdatedExpressions(exprs ...types.PlanExpression) (types.PlanOperator, error) {
	if len(exprs) != len(p.WindowExprs) {
		return nil, sql.NewErrInternalf("unexpected number of exprs '%d'", len(exprs))
	}
	return NewPlanOpWindow(p.planner, exprs, p.ChildOp), nil
}
