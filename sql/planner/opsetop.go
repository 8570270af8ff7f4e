package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpSetOp combines two inputs with union, intersect or except
// semantics. Both inputs have been coerced to a common schema by the
// compiler; output column names come from the left input.
type PlanOpSetOp struct {
	planner *StatementPlanner
	op      parser.SetOp
	all     bool
	Left    types.PlanOperator
	Right   types.PlanOperator
	schema  types.Schema

	warnings []string
}

func NewPlanOpSetOp(planner *StatementPlanner, op parser.SetOp, all bool, schema types.Schema, left types.PlanOperator, right types.PlanOperator) *PlanOpSetOp {
	return &PlanOpSetOp{
		planner:  planner,
		op:       op,
		all:      all,
		Left:     left,
		Right:    right,
		schema:   schema,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpSetOp) Schema() types.Schema {
	return p.schema
}

func (p *PlanOpSetOp) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.Left,
		p.Right,
	}
}

func (p *PlanOpSetOp) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 2 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpSetOp(p.planner, p.op, p.all, p.schema, children[0], children[1]), nil
}

func (p *PlanOpSetOp) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["setop"] = p.op.String()
	result["all"] = p.all
	result["left"] = p.Left.Plan()
	result["right"] = p.Right.Plan()
	return result
}

func (p *PlanOpSetOp) String() string {
	return ""
}

func (p *PlanOpSetOp) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpSetOp) Warnings() []string {
	return p.warnings
}
