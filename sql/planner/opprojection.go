package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

// columnNameForExpression derives an output column name for a projected
// expression. Named expressions keep their name; everything else uses its
// textual rendering.
func columnNameForExpression(expr types.PlanExpression) string {
	if named, ok := expr.(types.IdentifiableByName); ok {
		return named.Name()
	}
	return expr.String()
}

// relationNameForExpression returns the relation an expression's output
// column belongs to, which is only meaningful for direct column refs.
func relationNameForExpression(expr types.PlanExpression) string {
	if ref, ok := expr.(*qualifiedRefPlanExpression); ok {
		return ref.relationName
	}
	return ""
}

// PlanOpProjection computes the output columns of a select.
type PlanOpProjection struct {
	planner     *StatementPlanner
	ChildOp     types.PlanOperator
	Projections []types.PlanExpression

	warnings []string
}

func NewPlanOpProjection(planner *StatementPlanner, projections []types.PlanExpression, child types.PlanOperator) *PlanOpProjection {
	return &PlanOpProjection{
		planner:     planner,
		Projections: projections,
		ChildOp:     child,
		warnings:    make([]string, 0),
	}
}

func (p *PlanOpProjection) Schema() types.Schema {
	schema := make(types.Schema, len(p.Projections))
	for i, expr := range p.Projections {
		schema[i] = &types.PlannerColumn{
			ColumnName:   columnNameForExpression(expr),
			RelationName: relationNameForExpression(expr),
			Type:         expr.Type(),
		}
	}
	return schema
}

func (p *PlanOpProjection) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.ChildOp,
	}
}

func (p *PlanOpProjection) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpProjection(p.planner, p.Projections, children[0]), nil
}

func (p *PlanOpProjection) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	projections := make([]interface{}, len(p.Projections))
	for i, expr := range p.Projections {
		projections[i] = expr.Plan()
	}
	result["projections"] = projections
	result["child"] = p.ChildOp.Plan()
	return result
}

func (p *PlanOpProjection) String() string {
	return ""
}

func (p *PlanOpProjection) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpProjection) Warnings() []string {
	return p.warnings
}

func (p *PlanOpProjection) Expressions() []types.PlanExpression {
	return p.Projections
}

func (p *PlanOpProjection) WithUpdatedExpressions(exprs ...types.PlanExpression) (types.PlanOperator, error) {
	if len(exprs) != len(p.Projections) {
		return nil, sql.NewErrInternalf("unexpected number of exprs '%d'", len(exprs))
	}
	return NewPlanOpProjection(p.planner, exprs, p.ChildOp), nil
}
