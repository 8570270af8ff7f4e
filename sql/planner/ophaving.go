package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpHaving filters groups after aggregation. Its predicate addresses
// the output of the group by operator below it.
type PlanOpHaving struct {
	planner   *StatementPlanner
	ChildOp   types.PlanOperator
	Predicate types.PlanExpression

	warnings []string
}

func NewPlanOpHaving(planner *StatementPlanner, predicate types.PlanExpression, child types.PlanOperator) *PlanOpHaving {
	return &PlanOpHaving{
		planner:   planner,
		Predicate: predicate,
		ChildOp:   child,
		warnings:  make([]string, 0),
	}
}

func (p *PlanOpHaving) Schema() types.Schema {
	return p.ChildOp.Schema()
}

func (p *PlanOpHaving) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpHaving) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpHaving(p.planner, p.Predicate, children[0]), nil
}

func (p *PlanOpHaving) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["predicate"] = p.Predicate.Plan()
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpHaving) String() string {
	return ""
}

func (p *PlanOpHaving) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpHaving) Warnings() []string {
	return p.warnings
}

func (p *PlanOpHaving) Expressions() []types.PlanExpression {
	return []types.PlanExpression{
		p.Predicate,
	}
}

func (p *PlanOpHaving) WithUpdatedExpressions(exprs ...types.PlanExpression) (types.PlanOperator, error) {
	if len(exprs) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of exprs '%d'", len(exprs))
	}
	return NewPlanOpHaving(p.planner, exprs[0], p.ChildOp), nil
}
