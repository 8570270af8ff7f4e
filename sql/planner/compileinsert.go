package planner

import (
	"context"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// compileInsertStatement compiles insert from query. The source query's
// columns are assigned positionally to the target columns; assignments
// widen implicitly but never narrow.
func (p *StatementPlanner) compileInsertStatement(ctx context.Context, stmt *parser.InsertStatement) (types.PlanOperator, error) {
	if err := p.enterNestedPlan(); err != nil {
		return nil, err
	}
	defer p.leaveNestedPlan()

	qualifier := parser.IdentName(stmt.Table.Qualifier)
	name := stmt.Table.Name.Name
	pos := stmt.Table.Name.NamePos
	info, err := p.lookupTable(ctx, qualifier, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, sql.NewErrTableNotFound(pos.Line, pos.Column, name)
	}
	if info.IsView {
		return nil, sql.NewErrUnsupportedConstruct(pos.Line, pos.Column, "INSERT into a view")
	}

	// the target column list defaults to the table's columns in order
	targets := make([]*sql.ColumnInfo, 0, len(stmt.Columns))
	targetNames := make([]string, 0, len(stmt.Columns))
	if len(stmt.Columns) == 0 {
		for _, col := range info.Columns {
			targets = append(targets, col)
			targetNames = append(targetNames, col.Name)
		}
	} else {
		seen := make(map[string]bool)
		for _, ident := range stmt.Columns {
			if seen[ident.Name] {
				return nil, sql.NewErrDuplicateColumn(ident.NamePos.Line, ident.NamePos.Column, ident.Name)
			}
			seen[ident.Name] = true
			var target *sql.ColumnInfo
			for _, col := range info.Columns {
				if col.Name == ident.Name {
					target = col
					break
				}
			}
			if target == nil {
				return nil, sql.NewErrUnknownReference(ident.NamePos.Line, ident.NamePos.Column, ident.Name)
			}
			targets = append(targets, target)
			targetNames = append(targetNames, target.Name)
		}
	}

	query, err := p.compileSetOperand(ctx, stmt.Query)
	if err != nil {
		return nil, err
	}
	schema := query.Schema()
	if len(schema) != len(targets) {
		return nil, sql.NewErrInsertExprTargetCountMismatch(pos.Line, pos.Column)
	}

	assignTypes := make([]parser.ExprDataType, len(targets))
	for i, target := range targets {
		if coercionCost(schema[i].Type, target.Type) < 0 {
			return nil, sql.NewErrTypeAssignmentIncompatible(pos.Line, pos.Column, schema[i].Type.TypeDescription(), target.Type.TypeDescription())
		}
		assignTypes[i] = target.Type
	}
	query = p.castOperandTo(query, assignTypes)

	return NewPlanOpInsert(p, info.Qualifier, info.Name, targetNames, query), nil
}

// compileCreateTableAsStatement compiles create table as select; the new
// table takes its schema from the query.
func (p *StatementPlanner) compileCreateTableAsStatement(ctx context.Context, stmt *parser.CreateTableAsStatement) (types.PlanOperator, error) {
	if err := p.enterNestedPlan(); err != nil {
		return nil, err
	}
	defer p.leaveNestedPlan()

	query, err := p.compileSetOperand(ctx, stmt.Query)
	if err != nil {
		return nil, err
	}

	// output column names must be unique to become a table schema
	seen := make(map[string]bool)
	pos := stmt.Name.Name.NamePos
	for _, col := range query.Schema() {
		if seen[col.ColumnName] {
			return nil, sql.NewErrDuplicateColumn(pos.Line, pos.Column, col.ColumnName)
		}
		seen[col.ColumnName] = true
	}

	return NewPlanOpCreateTableAs(p, parser.IdentName(stmt.Name.Qualifier), stmt.Name.Name.Name, query), nil
}
