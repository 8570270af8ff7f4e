package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpDistinct removes duplicate rows from its input.
type PlanOpDistinct struct {
	planner *StatementPlanner
	ChildOp types.PlanOperator

	warnings []string
}

func NewPlanOpDistinct(planner *StatementPlanner, child types.PlanOperator) *PlanOpDistinct {
	return &PlanOpDistinct{
		planner:  planner,
		ChildOp:  child,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpDistinct) Schema() types.Schema {
	return p.ChildOp.Schema()
}

func (p *PlanOpDistinct) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpDistinct) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpDistinct(p.planner, children[0]), nil
}

func (p *PlanOpDistinct) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpDistinct) String() string {
	return ""
}

func (p *PlanOpDistinct) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpDistinct) Warnings() []string {
	return p.warnings
}
