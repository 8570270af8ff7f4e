package planner

import (
	"fmt"
	"strings"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// aggregateCallPlanExpression is an aggregate function call. A nil args
// slice with countStar set represents count(*).
type aggregateCallPlanExpression struct {
	name      string
	args      []types.PlanExpression
	distinct  bool
	countStar bool

	returnDataType parser.ExprDataType
}

func newAggregateCallPlanExpression(name string, args []types.PlanExpression, distinct bool, countStar bool, returnDataType parser.ExprDataType) *aggregateCallPlanExpression {
	return &aggregateCallPlanExpression{
		name:           name,
		args:           args,
		distinct:       distinct,
		countStar:      countStar,
		returnDataType: returnDataType,
	}
}

func (n *aggregateCallPlanExpression) Type() parser.ExprDataType {
	return n.returnDataType
}

func (n *aggregateCallPlanExpression) String() string {
	if n.countStar {
		return fmt.Sprintf("%s(*)", n.name)
	}
	args := make([]string, len(n.args))
	for i, a := range n.args {
		args[i] = a.String()
	}
	if n.distinct {
		return fmt.Sprintf("%s(distinct %s)", n.name, strings.Join(args, ","))
	}
	return fmt.Sprintf("%s(%s)", n.name, strings.Join(args, ","))
}

func (n *aggregateCallPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["name"] = n.name
	result["distinct"] = n.distinct
	args := make([]interface{}, len(n.args))
	for i, a := range n.args {
		args[i] = a.Plan()
	}
	result["args"] = args
	return result
}

func (n *aggregateCallPlanExpression) Children() []types.PlanExpression {
	return n.args
}

func (n *aggregateCallPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != len(n.args) {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newAggregateCallPlanExpression(n.name, children, n.distinct, n.countStar, n.returnDataType), nil
}

// sort directions for order by terms
type sortOrder int

const (
	sortOrderAsc sortOrder = iota
	sortOrderDesc
)

func (o sortOrder) String() string {
	if o == sortOrderDesc {
		return "desc"
	}
	return "asc"
}

// orderByExpression pairs an expression with a sort direction.
type orderByExpression struct {
	expr  types.PlanExpression
	order sortOrder
}

func (n *orderByExpression) String() string {
	return fmt.Sprintf("%s %s", n.expr.String(), n.order.String())
}

// windowCallPlanExpression is a function call with an over clause.
type windowCallPlanExpression struct {
	name        string
	args        []types.PlanExpression
	partitionBy []types.PlanExpression
	orderBy     []*orderByExpression

	returnDataType parser.ExprDataType
}

func newWindowCallPlanExpression(name string, args []types.PlanExpression, partitionBy []types.PlanExpression, orderBy []*orderByExpression, returnDataType parser.ExprDataType) *windowCallPlanExpression {
	return &windowCallPlanExpression{
		name:           name,
		args:           args,
		partitionBy:    partitionBy,
		orderBy:        orderBy,
		returnDataType: returnDataType,
	}
}

func (n *windowCallPlanExpression) Type() parser.ExprDataType {
	return n.returnDataType
}

func (n *windowCallPlanExpression) String() string {
	args := make([]string, len(n.args))
	for i, a := range n.args {
		args[i] = a.String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s) over (", n.name, strings.Join(args, ","))
	if len(n.partitionBy) > 0 {
		parts := make([]string, len(n.partitionBy))
		for i, p := range n.partitionBy {
			parts[i] = p.String()
		}
		fmt.Fprintf(&b, "partition by %s", strings.Join(parts, ","))
	}
	if len(n.orderBy) > 0 {
		if len(n.partitionBy) > 0 {
			b.WriteString(" ")
		}
		terms := make([]string, len(n.orderBy))
		for i, t := range n.orderBy {
			terms[i] = t.String()
		}
		fmt.Fprintf(&b, "order by %s", strings.Join(terms, ","))
	}
	b.WriteString(")")
	return b.String()
}

func (n *windowCallPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["name"] = n.name
	args := make([]interface{}, len(n.args))
	for i, a := range n.args {
		args[i] = a.Plan()
	}
	result["args"] = args
	partitions := make([]interface{}, len(n.partitionBy))
	for i, p := range n.partitionBy {
		partitions[i] = p.Plan()
	}
	result["partitionBy"] = partitions
	terms := make([]interface{}, len(n.orderBy))
	for i, t := range n.orderBy {
		term := make(map[string]interface{})
		term["expr"] = t.expr.Plan()
		term["order"] = t.order.String()
		terms[i] = term
	}
	result["orderBy"] = terms
	return result
}

func (n *windowCallPlanExpression) Children() []types.PlanExpression {
	children := make([]types.PlanExpression, 0, len(n.args)+len(n.partitionBy)+len(n.orderBy))
	children = append(children, n.args...)
	children = append(children, n.partitionBy...)
	for _, t := range n.orderBy {
		children = append(children, t.expr)
	}
	return children
}

func (n *windowCallPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	expected := len(n.args) + len(n.partitionBy) + len(n.orderBy)
	if len(children) != expected {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	args := children[:len(n.args)]
	partitionBy := children[len(n.args) : len(n.args)+len(n.partitionBy)]
	orderBy := make([]*orderByExpression, len(n.orderBy))
	for i, t := range n.orderBy {
		orderBy[i] = &orderByExpression{
			expr:  children[len(n.args)+len(n.partitionBy)+i],
			order: t.order,
		}
	}
	return newWindowCallPlanExpression(n.name, args, partitionBy, orderBy, n.returnDataType), nil
}
