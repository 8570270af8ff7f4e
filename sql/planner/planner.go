// Package planner compiles parsed SQL statements into logical plans. The
// planner performs name resolution, type checking and logical plan
// construction; it does not optimize or execute plans.
package planner

import (
	"context"

	"github.com/driftdata/drift/config"
	"github.com/driftdata/drift/logger"
	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// cteBinding is a common table expression visible during compilation. The
// defining query is planned once; every use site gets a lightweight
// reference to the materialization.
type cteBinding struct {
	name   string
	op     *PlanOpCTE
	schema types.Schema
}

// StatementPlanner compiles statements into logical plans.
type StatementPlanner struct {
	catalog   sql.CatalogAPI
	functions sql.FunctionAPI
	logger    logger.Logger

	maxPlanDepth int

	// per-compilation state
	depth            int
	scopes           *scopeStack
	ctes             map[string]*cteBinding
	cteList          []*cteBinding
	viewsInProgress  map[string]bool
	minResolvedFrame int
}

// NewStatementPlanner returns a planner with the default nesting limit.
func NewStatementPlanner(catalog sql.CatalogAPI, functions sql.FunctionAPI, log logger.Logger) *StatementPlanner {
	if log == nil {
		log = logger.NopLogger
	}
	return &StatementPlanner{
		catalog:      catalog,
		functions:    functions,
		logger:       log,
		maxPlanDepth: config.DefaultMaxPlanDepth,
	}
}

// NewStatementPlannerWithConfig returns a planner configured from cfg.
func NewStatementPlannerWithConfig(catalog sql.CatalogAPI, functions sql.FunctionAPI, log logger.Logger, cfg *config.Config) *StatementPlanner {
	p := NewStatementPlanner(catalog, functions, log)
	if cfg != nil && cfg.MaxPlanDepth > 0 {
		p.maxPlanDepth = cfg.MaxPlanDepth
	}
	return p
}

// CompilePlan compiles a statement into a logical plan. Compilation fails
// fast on the first error; when several interpretations of a reference
// fail, the error for the deepest successful partial resolution is the one
// returned.
func (p *StatementPlanner) CompilePlan(ctx context.Context, stmt parser.Statement) (types.PlanOperator, error) {
	p.depth = 0
	p.scopes = newScopeStack()
	p.ctes = make(map[string]*cteBinding)
	p.cteList = nil
	p.viewsInProgress = make(map[string]bool)
	p.minResolvedFrame = int(^uint(0) >> 1)

	var rootOperator types.PlanOperator
	var err error
	switch stmt := stmt.(type) {
	case *parser.SelectStatement:
		rootOperator, err = p.compileSelectStatement(ctx, stmt)
	case *parser.SetOperationStatement:
		rootOperator, err = p.compileSetOperationStatement(ctx, stmt)
	case *parser.InsertStatement:
		rootOperator, err = p.compileInsertStatement(ctx, stmt)
	case *parser.CreateTableAsStatement:
		rootOperator, err = p.compileCreateTableAsStatement(ctx, stmt)
	case *parser.ExplainStatement:
		rootOperator, err = p.compileExplainStatement(ctx, stmt)
	default:
		return nil, sql.NewErrUnsupportedConstruct(stmt.Pos().Line, stmt.Pos().Column, "statement")
	}
	if err != nil {
		return nil, err
	}

	materializations := make([]types.PlanOperator, 0, len(p.cteList))
	for _, binding := range p.cteList {
		materializations = append(materializations, binding.op)
	}
	query := NewPlanOpQuery(p, rootOperator, materializations)
	p.logger.Debugf("compiled plan for statement at %s", stmt.Pos())
	return query, nil
}

// enterNestedPlan guards the recursion depth of compilation. Every query
// block and expression level calls it on the way down.
func (p *StatementPlanner) enterNestedPlan() error {
	p.depth++
	if p.depth > p.maxPlanDepth {
		return sql.NewErrPlanTooDeep(p.maxPlanDepth)
	}
	return nil
}

func (p *StatementPlanner) leaveNestedPlan() {
	p.depth--
}
