package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpInsert writes the rows produced by its child into a base table.
type PlanOpInsert struct {
	planner       *StatementPlanner
	qualifier     string
	tableName     string
	targetColumns []string
	ChildOp       types.PlanOperator

	warnings []string
}

func NewPlanOpInsert(planner *StatementPlanner, qualifier string, tableName string, targetColumns []string, child types.PlanOperator) *PlanOpInsert {
	return &PlanOpInsert{
		planner:       planner,
		qualifier:     qualifier,
		tableName:     tableName,
		targetColumns: targetColumns,
		ChildOp:       child,
		warnings:      make([]string, 0),
	}
}

func (p *PlanOpInsert) Schema() types.Schema {
	return types.Schema{}
}

func (p *PlanOpInsert) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpInsert) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpInsert(p.planner, p.qualifier, p.tableName, p.targetColumns, children[0]), nil
}

func (p *PlanOpInsert) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["qualifier"] = p.qualifier
	result["tableName"] = p.tableName
	result["targetColumns"] = p.targetColumns
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpInsert) String() string {
	return ""
}

func (p *PlanOpInsert) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpInsert) Warnings() []string {
	return p.warnings
}
