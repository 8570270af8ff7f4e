package planner

import (
	"fmt"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/planner/types"
)

type joinType int

const (
	joinTypeInner joinType = iota
	joinTypeLeft
	joinTypeCross

	// joinTypeSemi and joinTypeAnti keep only top rows with (without) a
	// bottom match; they come from hoisted EXISTS and IN subqueries
	joinTypeSemi
	joinTypeAnti

	// joinTypeLeftSingle is a left outer join that admits at most one
	// bottom row per top row; it comes from hoisted scalar subqueries
	joinTypeLeftSingle
)

func (t joinType) String() string {
	switch t {
	case joinTypeInner:
		return "inner"
	case joinTypeLeft:
		return "left"
	case joinTypeCross:
		return "cross"
	case joinTypeSemi:
		return "semi"
	case joinTypeAnti:
		return "anti"
	case joinTypeLeftSingle:
		return "leftSingle"
	default:
		return "joinType(?)"
	}
}

// PlanOpNestedLoops is the logical join operator.
type PlanOpNestedLoops struct {
	planner  *StatementPlanner
	top      types.PlanOperator
	bottom   types.PlanOperator
	jointype joinType
	cond     types.PlanExpression

	warnings []string
}

func NewPlanOpNestedLoops(planner *StatementPlanner, jointype joinType, cond types.PlanExpression, top types.PlanOperator, bottom types.PlanOperator) *PlanOpNestedLoops {
	return &PlanOpNestedLoops{
		planner:  planner,
		top:      top,
		bottom:   bottom,
		jointype: jointype,
		cond:     cond,
		warnings: make([]string, 0),
	}
}

func (p *PlanOpNestedLoops) Schema() types.Schema {
	switch p.jointype {
	case joinTypeSemi, joinTypeAnti:
		return p.top.Schema()
	default:
		topSchema := p.top.Schema()
		bottomSchema := p.bottom.Schema()
		schema := make(types.Schema, 0, len(topSchema)+len(bottomSchema))
		schema = append(schema, topSchema...)
		schema = append(schema, bottomSchema...)
		return schema
	}
}

func (p *PlanOpNestedLoops) Children() []types.PlanOperator {
	return []types.PlanOperator{
		p.top,
		p.bottom,
	}
}

func (p *PlanOpNestedLoops) WithChildren(children ...types.PlanOperator) (types.PlanOperator, error) {
	if len(children) != 2 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return NewPlanOpNestedLoops(p.planner, p.jointype, p.cond, children[0], children[1]), nil
}

func (p *PlanOpNestedLoops) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_op"] = fmt.Sprintf("%T", p)
	result["_schema"] = p.Schema().Plan()
	result["jointype"] = p.jointype.String()
	if p.cond != nil {
		result["cond"] = p.cond.Plan()
	}
	result["top"] = p.top.Plan()
	result["bottom"] = p.bottom.Plan()
	return result
}

func (p *PlanOpNestedLoops) String() string {
	return ""
}

func (p *PlanOpNestedLoops) AddWarning(warning string) {
	p.warnings = append(p.warnings, warning)
}

func (p *PlanOpNestedLoops) Warnings() []string {
	return p.warnings
}

func (p *PlanOpNestedLoops) Expressions() []types.PlanExpression {
	if p.cond != nil {
		return []types.PlanExpression{
			p.cond,
		}
	}
	return []types.PlanExpression{}
}

func (p *PlanOpNestedLoops) WithUpdatedExpressions(exprs ...types.PlanExpression) (types.PlanOperator, error) {
	if len(exprs) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of exprs '%d'", len(exprs))
	}
	return NewPlanOpNestedLoops(p.planner, p.jointype, exprs[0], p.top, p.bottom), nil
}
