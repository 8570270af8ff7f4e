// Package sql contains the error taxonomy and the interfaces that connect
// the planner to the rest of the engine.
package sql

import (
	"context"

	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// ColumnInfo is the definition of a column in a catalog table.
type ColumnInfo struct {
	// Name is the column name.
	Name string

	// Type is the column data type.
	Type parser.ExprDataType
}

// TableInfo is the definition of a table or view in the catalog.
type TableInfo struct {
	// Qualifier is the namespace the relation lives in.
	Qualifier string

	// Name is the relation name.
	Name string

	// Columns is the ordered column list.
	Columns []*ColumnInfo

	// IsView is true when the relation is a view.
	IsView bool

	// Definition is the defining query of a view, nil for base tables.
	Definition parser.Statement
}

// CatalogAPI is the interface to the catalog used during name resolution.
type CatalogAPI interface {
	// LookupTable finds a relation by name. A non-empty qualifier
	// restricts the lookup to that namespace. Returns nil with no error
	// when the relation does not exist.
	LookupTable(ctx context.Context, qualifier string, name string) (*TableInfo, error)

	// CurrentSearchPath returns the ordered list of namespaces consulted
	// for unqualified names.
	CurrentSearchPath() []string
}

// FunctionSignature is one overload of a scalar, aggregate or window
// function.
type FunctionSignature struct {
	// Name is the function name, lower case.
	Name string

	// ParamTypes are the declared parameter types.
	ParamTypes []parser.ExprDataType

	// ReturnType is the declared return type.
	ReturnType parser.ExprDataType

	// IsAggregate is true for aggregate functions.
	IsAggregate bool

	// IsWindow is true for functions only valid with an OVER clause.
	IsWindow bool
}

// FunctionAPI resolves function names to their declared overloads.
type FunctionAPI interface {
	// SignaturesFor returns the overloads for a function name in
	// declaration order, or nil when the name is unknown.
	SignaturesFor(name string) []FunctionSignature
}

// CompilePlanner is implemented by the statement planner.
type CompilePlanner interface {
	// CompilePlan turns a parsed statement into a logical plan.
	CompilePlan(ctx context.Context, stmt parser.Statement) (types.PlanOperator, error)
}

// NopCompilePlanner is a no-op planner useful in tests and wiring.
type NopCompilePlanner struct{}

func NewNopCompilePlanner() *NopCompilePlanner {
	return &NopCompilePlanner{}
}

func (p *NopCompilePlanner) CompilePlan(ctx context.Context, stmt parser.Statement) (types.PlanOperator, error) {
	return nil, nil
}
