package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// PlanOpNullTable is the single-row, zero-column source used for queries
// with no FROM clause.
type PlanOpNullTable struct {
	warnings []string
}

func NewPlanOpNullTable() *PlanOpNullTable {
	return &PlanOpNullTable{
		warnings: make([]string, 0),
	}
}

func (p *PlanOpNullTable) Schema() types.Schema {
	return types.Schema{}
}

func (p *PlanOpNullTable) Children() []types.PlanOperator {
	return []types.PlanOperator{}
}

func (p *PlanOpNullTable) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpNullTable(), nil
}

func (p *PlanOpNullTable) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	return result
}

func (p *PlanOpNullTable) String() string {
	return ""
}

func (p *PlanOpNullTable) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpNullTable) Warnings() []string {
	return p.warnings
}
