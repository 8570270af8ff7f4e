package planner

import (
	"context"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// compileWithClause plans every common table expression in a with clause
// and makes it visible for the duration of the statement block. A CTE
// shadows any catalog relation with the same name and any CTE of the same
// name from an enclosing block; the returned restore function undoes the
// shadowing when the block ends. Each defining query is planned exactly
// once no matter how many times the statement uses it.
func (p *StatementPlanner) compileWithClause(ctx context.Context, with *parser.WithClause) (func(), error) {
	if with.Recursive.IsValid() {
		return nil, sql.NewErrUnsupportedConstruct(with.Recursive.Line, with.Recursive.Column, "WITH RECURSIVE")
	}

	shadowed := make(map[string]*cteBinding)
	introduced := make([]string, 0, len(with.CTEs))
	restore := func() {
		for _, name := range introduced {
			if previous, ok := shadowed[name]; ok {
				p.ctes[name] = previous
			} else {
				delete(p.ctes, name)
			}
		}
	}

	seen := make(map[string]bool)
	for _, cte := range with.CTEs {
		name := cte.Name.Name
		if seen[name] {
			restore()
			return nil, sql.NewErrDuplicateAlias(cte.Name.NamePos.Line, cte.Name.NamePos.Column, name)
		}
		seen[name] = true

		op, err := p.compileCTEQuery(ctx, cte)
		if err != nil {
			restore()
			return nil, err
		}

		materialization := NewPlanOpCTE(p, name, op)
		binding := &cteBinding{
			name:   name,
			op:     materialization,
			schema: materialization.Schema(),
		}
		if previous, ok := p.ctes[name]; ok {
			shadowed[name] = previous
		}
		p.ctes[name] = binding
		p.cteList = append(p.cteList, binding)
		introduced = append(introduced, name)
	}
	return restore, nil
}

func (p *StatementPlanner) compileCTEQuery(ctx context.Context, cte *parser.CTE) (types.PlanOperator, error) {
	var op types.PlanOperator
	var err error
	switch stmt := cte.Select.(type) {
	case *parser.SelectStatement:
		op, err = p.compileSelectStatement(ctx, stmt)
	case *parser.SetOperationStatement:
		op, err = p.compileSetOperationStatement(ctx, stmt)
	default:
		return nil, sql.NewErrUnsupportedConstruct(cte.Name.NamePos.Line, cte.Name.NamePos.Column, "common table expression body")
	}
	if err != nil {
		return nil, err
	}

	if len(cte.Columns) == 0 {
		return op, nil
	}

	// an explicit column list renames the query's outputs
	schema := op.Schema()
	if len(cte.Columns) != len(schema) {
		return nil, sql.NewErrColumnAliasCountMismatch(cte.Name.NamePos.Line, cte.Name.NamePos.Column, cte.Name.Name, len(cte.Columns), len(schema))
	}
	projections := make([]types.PlanExpression, len(schema))
	for i, col := range schema {
		ref := newQualifiedRefPlanExpression(col.RelationName, col.ColumnName, i, 0, col.Type)
		projections[i] = newAliasPlanExpression(cte.Columns[i].Name, ref)
	}
	return NewPlanOpProjection(p, projections, op), nil
}
