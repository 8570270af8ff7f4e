package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpCreateTableAs creates a new table with the schema and contents of
// its child query.
type PlanOpCreateTableAs struct {
	planner   *StatementPlanner
	qualifier string
	tableName string
	ChildOp   types.PlanOperator

	warnings []string
}

func NewPlanOpCreateTableAs(planner *StatementPlanner, qualifier string, tableName string, child types.PlanOperator) *PlanOpCreateTableAs {
	return &PlanOpCreateTableAs{
		planner:   planner,
		qualifier: qualifier,
		tableName: tableName,
		ChildOp:   child,
		warnings:  make([]string, 0),
	}
}

func (p *PlanOpCreateTableAs) Schema() types.Schema {
	return types.Schema{}
}

func (p *PlanOpCreateTableAs) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpCreateTableAs) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpCreateTableAs(p.planner, p.qualifier, p.tableName, children[0]), nil
}

func (p *PlanOpCreateTableAs) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["qualifier"] = p.qualifier
	result["tableName"] = p.tableName
	result["tableSchema"] = p.ChildOp.Schema().Plan()
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpCreateTableAs) String() string {
	return ""
}

func (p *PlanOpCreateTableAs) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpCreateTableAs) Warnings() []string {
	return p.warnings
}
