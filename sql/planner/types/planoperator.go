package types

import (
	"fmt"

	"github.com/driftdata/drift/sql/parser"
)

// PlannerColumn is the definition of a column produced by a plan operator.
type PlannerColumn struct {
	// ColumnName is the name of the column.
	ColumnName string

	// RelationName is the name of the relation the column belongs to, or
	// empty for computed columns.
	RelationName string

	// Type is the data type of the column.
	Type parser.ExprDataType
}

// Schema is the schema of a plan operator.
type Schema []*PlannerColumn

// Plan returns a rendering of the schema for plan display purposes.
func (s Schema) Plan() []map[string]interface{} {
	result := make([]map[string]interface{}, len(s))
	for idx, c := range s {
		col := make(map[string]interface{})
		col["name"] = c.ColumnName
		col["relation"] = c.RelationName
		if c.Type != nil {
			col["type"] = c.Type.TypeDescription()
		}
		result[idx] = col
	}
	return result
}

// PlanOperator is an operator node in a compiled plan.
type PlanOperator interface {
	fmt.Stringer

	// Schema returns the output schema of this operator.
	Schema() Schema

	// Children returns the child operators of this operator.
	Children() []PlanOperator

	// WithChildren returns a copy of this operator with the children
	// replaced. The number of children passed must match Children().
	WithChildren(children ...PlanOperator) (PlanOperator, error)

	// Plan returns a map containing a rendering of this operator for
	// plan display purposes.
	Plan() map[string]interface{}

	// AddWarning adds a warning to this operator.
	AddWarning(warning string)

	// Warnings returns the warnings accumulated on this operator.
	Warnings() []string
}

// ContainsExpressions is implemented by operators that hold expressions.
type ContainsExpressions interface {
	// Expressions returns the list of expressions held by the operator.
	Expressions() []PlanExpression

	// WithUpdatedExpressions returns a copy of the operator with the
	// expressions replaced. The number of expressions passed must match
	// Expressions().
	WithUpdatedExpressions(exprs ...PlanExpression) (PlanOperator, error)
}
