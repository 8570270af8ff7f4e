package types

import (
	"fmt"

	"github.com/driftdata/drift/sql/parser"
)

// PlanExpression is an expression node in a compiled plan.
type PlanExpression interface {
	fmt.Stringer

	// Type returns the data type of this expression.
	Type() parser.ExprDataType

	// Children returns the child expressions of this expression.
	Children() []PlanExpression

	// WithChildren returns a copy of this expression with the children
	// replaced. The number of children passed must match Children().
	WithChildren(children ...PlanExpression) (PlanExpression, error)

	// Plan returns a map containing a rendering of this expression for
	// plan display purposes.
	Plan() map[string]interface{}
}

// IdentifiableByName is implemented by expressions that carry a name, such
// as column references and aliases.
type IdentifiableByName interface {
	Name() string
}
