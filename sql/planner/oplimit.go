package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpLimit caps the number of rows produced, after skipping an optional
// offset. Either expression may be nil.
type PlanOpLimit struct {
	planner    *StatementPlanner
	ChildOp    types.PlanOperator
	LimitExpr  types.PlanExpression
	OffsetExpr types.PlanExpression

	warnings []string
}

func NewPlanOpLimit(planner *StatementPlanner, limitExpr types.PlanExpression, offsetExpr types.PlanExpression, child types.PlanOperator) *PlanOpLimit {
	return &PlanOpLimit{
		planner:    planner,
		LimitExpr:  limitExpr,
		OffsetExpr: offsetExpr,
		ChildOp:    child,
		warnings:   make([]string, 0),
	}
}

func (p *PlanOpLimit) Schema() types.Schema {
	return p.ChildOp.Schema()
}

func (p *PlanOpLimit) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpLimit) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpLimit(p.planner, p.LimitExpr, p.OffsetExpr, children[0]), nil
}

func (p *PlanOpLimit) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	if p.LimitExpr != nil {
		result["limit"] = p.LimitExpr.Plan()
	}
	if p.OffsetExpr != nil {
		result["offset"] = p.OffsetExpr.Plan()
	}
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpLimit) String() string {
	return ""
}

func (p *PlanOpLimit) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpLimit) Warnings() []string {
	return p.warnings
}
