package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpOrderBy sorts its input. Sort terms address the child's output
// columns.
type PlanOpOrderBy struct {
	planner      *StatementPlanner
	ChildOp      types.PlanOperator
	orderByTerms []*orderByExpression

	warnings []string
}

func NewPlanOpOrderBy(planner *StatementPlanner, orderByTerms []*orderByExpression, child types.PlanOperator) *PlanOpOrderBy {
	return &PlanOpOrderBy{
		planner:      planner,
		orderByTerms: orderByTerms,
		ChildOp:      child,
		warnings:     make([]string, 0),
	}
}

func (p *PlanOpOrderBy) Schema() types.Schema {
	return p.ChildOp.Schema()
}

func (p *PlanOpOrderBy) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpOrderBy) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpOrderBy(p.planner, p.orderByTerms, children[0]), nil
}

func (p *PlanOpOrderBy) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	terms := make([]interface{}, len(p.orderByTerms))
	for i, term := range p.orderByTerms {
		entry := make(map[string]interface{})
		entry["expr"] = term.expr.Plan()
		entry["order"] = term.order.String()
		terms[i] = entry
	}
	result["orderByTerms"] = terms
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpOrderBy) String() string {
	return ""
}

func (p *PlanOpOrderBy) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpOrderBy) Warnings() []string {
	return p.warnings
}

func (p *PlanOpOrderBy) Expressions() []types.PlanExpression {
	exprs := make([]types.PlanExpression, len(p.orderByTerms))
	for i, term := range p.orderByTerms {
		exprs[i] = term.expr
	}
	return exprs
}

func (p *PlanOpOrderBy) WithUpdatedExpressions(exprs ...types.PlanExpression) (types.PlanOperator, error) {
	if len(exprs) != len(p.orderByTerms) {
		return nil, sql.NewErrInternalf("unexpected number of exprs '%d'", len(exprs))
	}
	terms := make([]*orderByExpression, len(exprs))
	for i, expr := range exprs {
		terms[i] = &orderByExpression{
			expr:  expr,
			order: p.orderByTerms[i].order,
		}
	}
	return NewPlanOpOrderBy(p.planner, terms, p.ChildOp), nil
}
