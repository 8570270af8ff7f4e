package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpTableScan reads a base table from the catalog.
type PlanOpTableScan struct {
	planner   *StatementPlanner
	qualifier string
	tableName string
	schema    types.Schema

	warnings []string
}

func NewPlanOpTableScan(planner *StatementPlanner, qualifier string, tableName string, schema types.Schema) *PlanOpTableScan {
	return &PlanOpTableScan{
		planner:   planner,
		qualifier: qualifier,
		tableName: tableName,
		schema:    schema,
		warnings:  make([]string, 0),
	}
}

func (p *PlanOpTableScan) Schema() types.Schema {
	return p.schema
}

func (p *PlanOpTableScan) Children() []types.PlanOperator {
	return []types.PlanOperator{}
}

func (p *PlanOpTableScan) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpTableScan(p.planner, p.qualifier, p.tableName, p.schema), nil
}

func (p *PlanOpTableScan) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["qualifier"] = p.qualifier
	result["tableName"] = p.tableName
	return result
}

func (p *PlanOpTableScan) String() string {
	if p.qualifier == "" {
		return p.tableName
	}
	return fmt.Sprintf("%s.%s", p.qualifier, p.tableName)
}

func (p *PlanOpTableScan) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpTableScan) Warnings() []string {
	return p.warnings
}
