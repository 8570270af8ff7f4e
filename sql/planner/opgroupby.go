package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpGroupBy groups its input and evaluates aggregates per group. Its
// output schema is the group keys in declaration order followed by the
// aggregates; later operators address both by position.
type PlanOpGroupBy struct {
	planner      *StatementPlanner
	ChildOp      types.PlanOperator
	Aggregates   []types.PlanExpression
	GroupByExprs []types.PlanExpression

	warnings []string
}

func NewPlanOpGroupBy(planner *StatementPlanner, aggregates []types.PlanExpression, groupByExprs []types.PlanExpression, child types.PlanOperator) *PlanOpGroupBy {
	return &PlanOpGroupBy{
		planner:      planner,
		Aggregates:   aggregates,
		GroupByExprs: groupByExprs,
		ChildOp:      child,
		warnings:     make([]string, 0),
	}
}

func (p *PlanOpGroupBy) Schema() types.Schema {
	schema := make(types.Schema, 0, len(p.GroupByExprs)+len(p.Aggregates))
	for _, expr := range p.GroupByExprs {
		schema = append(schema, &types.PlannerColumn{
			ColumnName:   columnNameForExpression(expr),
			RelationName: relationNameForExpression(expr),
			Type:         expr.Type(),
		})
	}
	for _, expr := range p.Aggregates {
		schema = append(schema, &types.PlannerColumn{
			ColumnName: columnNameForExpression(expr),
			Type:       expr.Type(),
		})
	}
	return schema
}

func (p *PlanOpGroupBy) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpGroupBy) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpGroupBy(p.planner, p.Aggregates, p.GroupByExprs, children[0]), nil
}

func (p *PlanOpGroupBy) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	aggregates := make([]interface{}, len(p.Aggregates))
	for i, expr := range p.Aggregates {
		aggregates[i] = expr.Plan()
	}
	result["aggregates"] = aggregates
	groupings := make([]interface{}, len(p.GroupByExprs))
	for i, expr := range p.GroupByExprs {
		groupings[i] = expr.Plan()
	}
	result["groupByExprs"] = groupings
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpGroupBy) String() string {
	return ""
}

func (p *PlanOpGroupBy) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpGroupBy) Warnings() []string {
	return p.warnings
}

func (p *PlanOpGroupBy) Expressions() []types.PlanExpression {
	exprs := make([]types.PlanExpression, 0, len(p.GroupByExprs)+len(p.Aggregates))
	exprs = append(exprs, p.GroupByExprs...)
	exprs = append(exprs, p.Aggregates...)
	return exprs
}

func (p *PlanOpGroupBy) WithUpdatedExpressions(exprs ...types.PlanExpression) (types.PlanOperator, error) {
	if len(exprs) != len(p.GroupByExprs)+len(p.Aggregates) {
		return nil, sql.NewErrInternalf("unexpected number of exprs '%d'", len(exprs))
	}
	groupings := exprs[:len(p.GroupByExprs)]
	aggregates := exprs[len(p.GroupByExprs):]
	return NewPlanOpGroupBy(p.planner, aggregates, groupings, p.ChildOp), nil
}
