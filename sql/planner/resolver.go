package planner

import (
	"context"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// resolveRelation turns a table reference into a plan operator. Resolution
// tries, in order: a CTE visible at this point in the statement, a
// qualified catalog lookup, and the namespaces of the current search path.
// Views are expanded in place by planning their defining query.
func (p *StatementPlanner) resolveRelation(ctx context.Context, tbl *parser.QualifiedTableName) (types.PlanOperator, error) {
	qualifier := parser.IdentName(tbl.Qualifier)
	name := tbl.Name.Name
	pos := tbl.Name.NamePos

	// an unqualified name can be shadowed by a CTE
	if qualifier == "" {
		if binding, ok := p.ctes[name]; ok {
			return NewPlanOpCTERef(p, binding), nil
		}
	}

	info, err := p.lookupTable(ctx, qualifier, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		displayName := name
		if qualifier != "" {
			displayName = qualifier + "." + name
		}
		return nil, sql.NewErrTableNotFound(pos.Line, pos.Column, displayName)
	}

	if info.IsView {
		return p.expandView(ctx, info, pos)
	}

	schema := make(types.Schema, 0, len(info.Columns))
	for _, col := range info.Columns {
		schema = append(schema, &types.PlannerColumn{
			ColumnName:   col.Name,
			RelationName: info.Name,
			Type:         col.Type,
		})
	}
	return NewPlanOpTableScan(p, info.Qualifier, info.Name, schema), nil
}

func (p *StatementPlanner) lookupTable(ctx context.Context, qualifier string, name string) (*sql.TableInfo, error) {
	if qualifier != "" {
		return p.catalog.LookupTable(ctx, qualifier, name)
	}
	for _, namespace := range p.catalog.CurrentSearchPath() {
		info, err := p.catalog.LookupTable(ctx, namespace, name)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, nil
}

// expandView plans the defining query of a view in place. A view that is
// reached again while its own definition is being planned is cyclic.
func (p *StatementPlanner) expandView(ctx context.Context, info *sql.TableInfo, pos parser.Pos) (types.PlanOperator, error) {
	key := info.Qualifier + "." + info.Name
	if p.viewsInProgress[key] {
		return nil, sql.NewErrCyclicViewReference(pos.Line, pos.Column, info.Name)
	}
	if info.Definition == nil {
		return nil, sql.NewErrInternalf("view '%s' has no definition", info.Name)
	}
	p.viewsInProgress[key] = true
	defer delete(p.viewsInProgress, key)

	var op types.PlanOperator
	var err error
	switch stmt := info.Definition.(type) {
	case *parser.SelectStatement:
		op, err = p.compileSelectStatement(ctx, stmt)
	case *parser.SetOperationStatement:
		op, err = p.compileSetOperationStatement(ctx, stmt)
	default:
		return nil, sql.NewErrUnsupportedConstruct(pos.Line, pos.Column, "view definition")
	}
	if err != nil {
		return nil, err
	}
	// present the view's columns under the view's name
	return NewPlanOpRelAlias(p, info.Name, op), nil
}
