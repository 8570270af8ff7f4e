package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

func tInsert(table string, columns []string, query parser.Statement) *parser.InsertStatement {
	stmt := &parser.InsertStatement{
		Insert: tpos,
		Table:  tTable(table),
		Query:  query,
	}
	for _, column := range columns {
		stmt.Columns = append(stmt.Columns, tIdent(column))
	}
	return stmt
}

func findInsert(t *testing.T, op types.PlanOperator) *PlanOpInsert {
	t.Helper()
	var insert *PlanOpInsert
	InspectPlan(op, func(node types.PlanOperator) bool {
		if i, ok := node.(*PlanOpInsert); ok {
			insert = i
		}
		return true
	})
	require.NotNil(t, insert)
	return insert
}

func TestInsertFromQuery(t *testing.T) {
	p := newTestPlanner(t)

	query := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(tCol("name"))}, tTable("customers"))
	op := compile(t, p, tInsert("customers", nil, query))

	insert := findInsert(t, op)
	assert.Equal(t, []string{"id", "name"}, insert.targetColumns)
}

func TestInsertExplicitColumns(t *testing.T) {
	p := newTestPlanner(t)

	query := tSelect([]*parser.ResultColumn{tRC(tCol("region"))}, tTable("orders"))
	op := compile(t, p, tInsert("customers", []string{"name"}, query))

	insert := findInsert(t, op)
	assert.Equal(t, []string{"name"}, insert.targetColumns)
}

func TestInsertAssignmentWidens(t *testing.T) {
	p := newTestPlanner(t)

	// an int32 source widens into the int64 target column
	query := tSelect([]*parser.ResultColumn{tRC(tCol("entry"))}, tTable("ledger"))
	compile(t, p, tInsert("customers", []string{"id"}, query))
}

func TestInsertAssignmentNeverNarrows(t *testing.T) {
	p := newTestPlanner(t)

	// a float64 source does not implicitly narrow into an int64 target
	query := tSelect([]*parser.ResultColumn{tRC(tCol("amount"))}, tTable("orders"))
	compileErr(t, p, tInsert("customers", []string{"id"}, query), sql.ErrTypeAssignmentIncompatible)
}

func TestInsertErrors(t *testing.T) {
	p := newTestPlanner(t)

	query := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))

	compileErr(t, p, tInsert("missing", nil, query), sql.ErrTableNotFound)
	compileErr(t, p, tInsert("customers", []string{"id", "id"}, query), sql.ErrDuplicateColumn)
	compileErr(t, p, tInsert("customers", []string{"nope"}, query), sql.ErrUnknownReference)

	// column counts must line up
	compileErr(t, p, tInsert("customers", nil, query), sql.ErrInsertExprTargetCountMismatch)
}

func TestInsertIntoView(t *testing.T) {
	catalog := newTestCatalog()
	catalog.tables["main.v"] = &sql.TableInfo{
		Qualifier:  "main",
		Name:       "v",
		Columns:    []*sql.ColumnInfo{{Name: "id", Type: parser.NewDataTypeInt64()}},
		IsView:     true,
		Definition: tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders")),
	}
	p := NewStatementPlanner(catalog, newTestFunctions(), nil)

	query := tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders"))
	compileErr(t, p, tInsert("v", nil, query), sql.ErrUnsupportedConstruct)
}

func TestInsertFromUnion(t *testing.T) {
	p := newTestPlanner(t)

	union := tUnion(
		tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("orders")),
		tSelect([]*parser.ResultColumn{tRC(tCol("id"))}, tTable("customers")),
	)
	op := compile(t, p, tInsert("customers", []string{"id"}, union))
	findInsert(t, op)
}

func TestCreateTableAs(t *testing.T) {
	p := newTestPlanner(t)

	query := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRCAlias(tCol("amount"), "total")}, tTable("orders"))
	stmt := &parser.CreateTableAsStatement{Create: tpos, Name: tTable("summary"), Query: query}
	op := compile(t, p, stmt)

	var ctas *PlanOpCreateTableAs
	InspectPlan(op, func(node types.PlanOperator) bool {
		if c, ok := node.(*PlanOpCreateTableAs); ok {
			ctas = c
		}
		return true
	})
	require.NotNil(t, ctas)
	assert.Equal(t, "summary", ctas.tableName)

	// the created schema needs distinct column names
	dup := tSelect([]*parser.ResultColumn{tRC(tCol("id")), tRC(tCol("id"))}, tTable("orders"))
	stmt = &parser.CreateTableAsStatement{Create: tpos, Name: tTable("summary"), Query: dup}
	compileErr(t, p, stmt, sql.ErrDuplicateColumn)
}
