package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpQuery is the root of every compiled plan. It holds the statement
// plan and the materializations for any common table expressions the
// statement defines, each planned exactly once.
type PlanOpQuery struct {
	planner *StatementPlanner

	ChildOp types.PlanOperator

	// Materializations are the CTE plans referenced from the statement.
	Materializations []types.PlanOperator

	warnings []string
}

func NewPlanOpQuery(planner *StatementPlanner, child types.PlanOperator, materializations []types.PlanOperator) *PlanOpQuery {
	return &PlanOpQuery{
		planner:          planner,
		ChildOp:          child,
		Materializations: materializations,
		warnings:         make([]string, 0),
	}
}

func (p *PlanOpQuery) Schema() types.Schema {
	return p.ChildOp.Schema()
}

func (p *PlanOpQuery) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpQuery) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	op := NewPlanOpQuery(p.planner, children[0], p.Materializations)
	op.warnings = append(op.warnings, p.warnings...)
	return op, nil
}

func (p *PlanOpQuery) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	if len(p.Materializations) > 0 {
		materializations := make([]interface{}, len(p.Materializations))
		for i, m := range p.Materializations {
			materializations[i] = m.Plan()
		}
		result["materializations"] = materializations
	}
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpQuery) String() string {
	return ""
}

func (p *PlanOpQuery) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpQuery) Warnings() []string {
	var result []string
	result = append(result, p.warnings...)
	for _, child := range p.Children() {
		result = append(result, child.Warnings()...)
	}
	return result
}
