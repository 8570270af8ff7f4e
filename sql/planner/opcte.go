package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpCTE is the materialization of a common table expression. The
// defining query is planned exactly once; every use in the statement is a
// PlanOpCTERef pointing at this operator.
type PlanOpCTE struct {
	planner *StatementPlanner
	name    string
	ChildOp types.PlanOperator

	warnings []string
}

func NewPlanOpCTE(planner *StatementPlanner, name string, child types.PlanOperator) *PlanOpCTE {
	return &PlanOpCTE{
		planner:  planner,
		name:     name,
		ChildOp:  child,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpCTE) Name() string {
	return p.name
}

func (p *PlanOpCTE) Schema() types.Schema {
	childSchema := p.ChildOp.Schema()
	schema := make(types.Schema, len(childSchema))
	for i, col := range childSchema {
		schema[i] = &types.PlannerColumn{
			ColumnName:   col.ColumnName,
			RelationName: p.name,
			Type:         col.Type,
		}
	}
	return schema
}

func (p *PlanOpCTE) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpCTE) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpCTE(p.planner, p.name, children[0]), nil
}

func (p *PlanOpCTE) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["name"] = p.name
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpCTE) String() string {
	return p.name
}

func (p *PlanOpCTE) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpCTE) Warnings() []string {
	return p.warnings
}

// PlanOpCTERef is a use of a common table expression. It carries the
// schema of the materialization but none of its plan; the materialization
// itself lives on the root query operator.
type PlanOpCTERef struct {
	planner *StatementPlanner
	cteName string
	schema  types.Schema

	warnings []string
}

func NewPlanOpCTERef(planner *StatementPlanner, binding *cteBinding) *PlanOpCTERef {
	return &PlanOpCTERef{
		planner:  planner,
		cteName:  binding.name,
		schema:   binding.schema,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpCTERef) Name() string {
	return p.cteName
}

func (p *PlanOpCTERef) Schema() types.Schema {
	return p.schema
}

func (p *PlanOpCTERef) Children() []types.PlanOperator {
	return []types.PlanOperator{}
}

func (p *PlanOpCTERef) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return p, nil
}

func (p *PlanOpCTERef) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["cteName"] = p.cteName
	return result
}

func (p *PlanOpCTERef) String() string {
	return p.cteName
}

func (p *PlanOpCTERef) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpCTERef) Warnings() []string {
	return p.warnings
}
