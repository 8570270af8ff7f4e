package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpRelAlias renames the relation its child's columns belong to. It is
// used for table aliases, derived tables and expanded views.
type PlanOpRelAlias struct {
	planner *StatementPlanner
	alias   string
	ChildOp types.PlanOperator

	warnings []string
}

func NewPlanOpRelAlias(planner *StatementPlanner, alias string, child types.PlanOperator) *PlanOpRelAlias {
	return &PlanOpRelAlias{
		planner:  planner,
		alias:    alias,
		ChildOp:  child,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpRelAlias) Schema() types.Schema {
	childSchema := p.ChildOp.Schema()
	schema := make(types.Schema, len(childSchema))
	for i, col := range childSchema {
		schema[i] = &types.PlannerColumn{
			ColumnName:   col.ColumnName,
			RelationName: p.alias,
			Type:         col.Type,
		}
	}
	return schema
}

func (p *PlanOpRelAlias) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpRelAlias) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpRelAlias(p.planner, p.alias, children[0]), nil
}

func (p *PlanOpRelAlias) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["alias"] = p.alias
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpRelAlias) String() string {
	return p.alias
}

func (p *PlanOpRelAlias) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpRelAlias) Warnings() []string {
	return p.warnings
}
