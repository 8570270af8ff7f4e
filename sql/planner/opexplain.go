package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpExplain renders the plan of the statement it wraps instead of
// running it.
type PlanOpExplain struct {
	planner *StatementPlanner
	ChildOp types.PlanOperator

	warnings []string
}

func NewPlanOpExplain(planner *StatementPlanner, child types.PlanOperator) *PlanOpExplain {
	return &PlanOpExplain{
		planner:  planner,
		ChildOp:  child,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpExplain) Schema() types.Schema {
	return types.Schema{
		&types.PlannerColumn{
			ColumnName: "plan",
			Type:       parser.NewDataTypeString(),
		},
	}
}

func (p *PlanOpExplain) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpExplain) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpExplain(p.planner, children[0]), nil
}

func (p *PlanOpExplain) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpExplain) String() string {
	return ""
}

func (p *PlanOpExplain) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpExplain) Warnings() []string {
	return p.warnings
}
