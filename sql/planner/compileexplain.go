package planner

import (
	"context"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// compileExplainStatement compiles the wrapped statement normally and
// wraps its plan so execution renders the plan instead of running it.
func (p *StatementPlanner) compileExplainStatement(ctx context.Context, stmt *parser.ExplainStatement) (types.PlanOperator, error) {
	var child types.PlanOperator
	var err error
	switch inner := stmt.Stmt.(type) {
	case *parser.SelectStatement:
		child, err = p.compileSelectStatement(ctx, inner)
	case *parser.SetOperationStatement:
		child, err = p.compileSetOperationStatement(ctx, inner)
	case *parser.InsertStatement:
		child, err = p.compileInsertStatement(ctx, inner)
	case *parser.CreateTableAsStatement:
		child, err = p.compileCreateTableAsStatement(ctx, inner)
	default:
		return nil, sql.NewErrUnsupportedConstruct(stmt.Explain.Line, stmt.Explain.Column, "EXPLAIN of this statement")
	}
	if err != nil {
		return nil, err
	}
	return NewPlanOpExplain(p, child), nil
}
