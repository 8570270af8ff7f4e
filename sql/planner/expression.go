package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// intLiteralPlanExpression is an integer literal
type intLiteralPlanExpression struct {
	value    int64
	dataType parser.ExprDataType
}

func newIntLiteralPlanExpression(value int64, dataType parser.ExprDataType) *intLiteralPlanExpression {
	return &intLiteralPlanExpression{
		value:    value,
		dataType: dataType,
	}
}

func (n *intLiteralPlanExpression) Type() parser.ExprDataType {
	return n.dataType
}

func (n *intLiteralPlanExpression) String() string {
	return strconv.FormatInt(n.value, 10)
}

func (n *intLiteralPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["value"] = n.value
	return result
}

func (n *intLiteralPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *intLiteralPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}

// floatLiteralPlanExpression is a floating point literal
type floatLiteralPlanExpression struct {
	value    string
	dataType parser.ExprDataType
}

func newFloatLiteralPlanExpression(value string) *floatLiteralPlanExpression {
	return &floatLiteralPlanExpression{
		value:    value,
		dataType: parser.NewDataTypeFloat64(),
	}
}

func (n *floatLiteralPlanExpression) Type() parser.ExprDataType {
	return n.dataType
}

func (n *floatLiteralPlanExpression) String() string {
	return n.value
}

func (n *floatLiteralPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["value"] = n.value
	return result
}

func (n *floatLiteralPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *floatLiteralPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}

// stringLiteralPlanExpression is a string literal
type stringLiteralPlanExpression struct {
	value string
}

func newStringLiteralPlanExpression(value string) *stringLiteralPlanExpression {
	return &stringLiteralPlanExpression{
		value: value,
	}
}

func (n *stringLiteralPlanExpression) Type() parser.ExprDataType {
	return parser.NewDataTypeString()
}

func (n *stringLiteralPlanExpression) String() string {
	return fmt.Sprintf("'%s'", n.value)
}

func (n *stringLiteralPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["value"] = n.value
	return result
}

func (n *stringLiteralPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *stringLiteralPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}

// boolLiteralPlanExpression is a boolean literal
type boolLiteralPlanExpression struct {
	value bool
}

func newBoolLiteralPlanExpression(value bool) *boolLiteralPlanExpression {
	return &boolLiteralPlanExpression{
		value: value,
	}
}

func (n *boolLiteralPlanExpression) Type() parser.ExprDataType {
	return parser.NewDataTypeBool()
}

func (n *boolLiteralPlanExpression) String() string {
	return strconv.FormatBool(n.value)
}

func (n *boolLiteralPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["value"] = n.value
	return result
}

func (n *boolLiteralPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *boolLiteralPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}

// nullLiteralPlanExpression is a null literal
type nullLiteralPlanExpression struct{}

func newNullLiteralPlanExpression() *nullLiteralPlanExpression {
	return &nullLiteralPlanExpression{}
}

func (n *nullLiteralPlanExpression) Type() parser.ExprDataType {
	return parser.NewDataTypeVoid()
}

func (n *nullLiteralPlanExpression) String() string {
	return "null"
}

func (n *nullLiteralPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	return result
}

func (n *nullLiteralPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *nullLiteralPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}

// qualifiedRefPlanExpression is a reference to a column in a relation. The
// columnIndex is the position of the column in the flattened output of the
// referenced scope; scopeLevel is zero for refs into the current query
// block and counts enclosing blocks for correlated refs.
type qualifiedRefPlanExpression struct {
	types.IdentifiableByName
	relationName string
	columnName   string
	columnIndex  int
	scopeLevel   int
	dataType     parser.ExprDataType

	// pos is where the reference appeared in the statement, for errors
	// reported after binding
	pos parser.Pos

	// rebased marks a ref the planner synthesized into a grouped
	// operator's output; such a ref no longer reads a source column
	rebased bool
}

func newQualifiedRefPlanExpression(relationName string, columnName string, columnIndex int, scopeLevel int, dataType parser.ExprDataType) *qualifiedRefPlanExpression {
	return &qualifiedRefPlanExpression{
		relationName: relationName,
		columnName:   columnName,
		columnIndex:  columnIndex,
		scopeLevel:   scopeLevel,
		dataType:     dataType,
	}
}

func (n *qualifiedRefPlanExpression) correlated() bool {
	return n.scopeLevel > 0
}

func (n *qualifiedRefPlanExpression) Name() string {
	return n.columnName
}

func (n *qualifiedRefPlanExpression) Type() parser.ExprDataType {
	return n.dataType
}

func (n *qualifiedRefPlanExpression) String() string {
	if n.relationName == "" {
		return n.columnName
	}
	return fmt.Sprintf("%s.%s", n.relationName, n.columnName)
}

func (n *qualifiedRefPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["relation"] = n.relationName
	result["column"] = n.columnName
	result["columnIndex"] = n.columnIndex
	if n.scopeLevel > 0 {
		result["scopeLevel"] = n.scopeLevel
	}
	return result
}

func (n *qualifiedRefPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *qualifiedRefPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}

// aliasPlanExpression is a named expression in a select list
type aliasPlanExpression struct {
	types.IdentifiableByName
	aliasName string
	expr      types.PlanExpression
}

func newAliasPlanExpression(aliasName string, expr types.PlanExpression) *aliasPlanExpression {
	return &aliasPlanExpression{
		aliasName: aliasName,
		expr:      expr,
	}
}

func (n *aliasPlanExpression) Name() string {
	return n.aliasName
}

func (n *aliasPlanExpression) Type() parser.ExprDataType {
	return n.expr.Type()
}

func (n *aliasPlanExpression) String() string {
	return fmt.Sprintf("%s as %s", n.expr.String(), n.aliasName)
}

func (n *aliasPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["alias"] = n.aliasName
	result["expr"] = n.expr.Plan()
	return result
}

func (n *aliasPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{
		n.expr,
	}
}

func (n *aliasPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newAliasPlanExpression(n.aliasName, children[0]), nil
}

// unaryOpPlanExpression is a unary operator
type unaryOpPlanExpression struct {
	op  parser.Token
	rhs types.PlanExpression

	resultDataType parser.ExprDataType
}

func newUnaryOpPlanExpression(op parser.Token, rhs types.PlanExpression, dataType parser.ExprDataType) *unaryOpPlanExpression {
	return &unaryOpPlanExpression{
		op:             op,
		rhs:            rhs,
		resultDataType: dataType,
	}
}

func (n *unaryOpPlanExpression) Type() parser.ExprDataType {
	return n.resultDataType
}

func (n *unaryOpPlanExpression) String() string {
	return fmt.Sprintf("%s%s", n.op.String(), n.rhs.String())
}

func (n *unaryOpPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["op"] = n.op.String()
	result["rhs"] = n.rhs.Plan()
	return result
}

func (n *unaryOpPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{
		n.rhs,
	}
}

func (n *unaryOpPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newUnaryOpPlanExpression(n.op, children[0], n.resultDataType), nil
}

// binOpPlanExpression is a binary operator
type binOpPlanExpression struct {
	lhs types.PlanExpression
	op  parser.Token
	rhs types.PlanExpression

	resultDataType parser.ExprDataType
}

func newBinOpPlanExpression(lhs types.PlanExpression, op parser.Token, rhs types.PlanExpression, dataType parser.ExprDataType) *binOpPlanExpression {
	return &binOpPlanExpression{
		lhs:            lhs,
		op:             op,
		rhs:            rhs,
		resultDataType: dataType,
	}
}

func (n *binOpPlanExpression) Type() parser.ExprDataType {
	return n.resultDataType
}

func (n *binOpPlanExpression) String() string {
	return fmt.Sprintf("%s%s%s", n.lhs.String(), n.op.String(), n.rhs.String())
}

func (n *binOpPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["op"] = n.op.String()
	result["lhs"] = n.lhs.Plan()
	result["rhs"] = n.rhs.Plan()
	return result
}

func (n *binOpPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{
		n.lhs,
		n.rhs,
	}
}

func (n *binOpPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 2 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newBinOpPlanExpression(children[0], n.op, children[1], n.resultDataType), nil
}

// rangePlanExpression is the bounds pair of a between
type rangePlanExpression struct {
	lhs types.PlanExpression
	rhs types.PlanExpression

	resultDataType parser.ExprDataType
}

func newRangePlanExpression(lhs types.PlanExpression, rhs types.PlanExpression, dataType parser.ExprDataType) *rangePlanExpression {
	return &rangePlanExpression{
		lhs:            lhs,
		rhs:            rhs,
		resultDataType: dataType,
	}
}

func (n *rangePlanExpression) Type() parser.ExprDataType {
	return n.resultDataType
}

func (n *rangePlanExpression) String() string {
	return fmt.Sprintf("%s and %s", n.lhs.String(), n.rhs.String())
}

func (n *rangePlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["lower"] = n.lhs.Plan()
	result["upper"] = n.rhs.Plan()
	return result
}

func (n *rangePlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{
		n.lhs,
		n.rhs,
	}
}

func (n *rangePlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 2 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newRangePlanExpression(children[0], children[1], n.resultDataType), nil
}

// exprListPlanExpression is a list of expressions, the rhs of an IN
type exprListPlanExpression struct {
	exprs []types.PlanExpression
}

func newExprListPlanExpression(exprs []types.PlanExpression) *exprListPlanExpression {
	return &exprListPlanExpression{
		exprs: exprs,
	}
}

func (n *exprListPlanExpression) Type() parser.ExprDataType {
	if len(n.exprs) > 0 {
		return n.exprs[0].Type()
	}
	return parser.NewDataTypeVoid()
}

func (n *exprListPlanExpression) String() string {
	items := make([]string, len(n.exprs))
	for i, e := range n.exprs {
		items[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(items, ","))
}

func (n *exprListPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	exprs := make([]interface{}, len(n.exprs))
	for i, e := range n.exprs {
		exprs[i] = e.Plan()
	}
	result["exprs"] = exprs
	return result
}

func (n *exprListPlanExpression) Children() []types.PlanExpression {
	return n.exprs
}

func (n *exprListPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != len(n.exprs) {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newExprListPlanExpression(children), nil
}

// castPlanExpression converts its operand to a target type. Implicit casts
// are inserted by the binder during coercion; explicit casts come from CAST
// expressions in the query.
type castPlanExpression struct {
	expr     types.PlanExpression
	castType parser.ExprDataType
	implicit bool
}

func newCastPlanExpression(expr types.PlanExpression, castType parser.ExprDataType, implicit bool) *castPlanExpression {
	return &castPlanExpression{
		expr:     expr,
		castType: castType,
		implicit: implicit,
	}
}

func (n *castPlanExpression) Type() parser.ExprDataType {
	return n.castType
}

func (n *castPlanExpression) String() string {
	if n.implicit {
		return n.expr.String()
	}
	return fmt.Sprintf("cast(%s as %s)", n.expr.String(), n.castType.TypeDescription())
}

func (n *castPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["implicit"] = n.implicit
	result["expr"] = n.expr.Plan()
	return result
}

func (n *castPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{
		n.expr,
	}
}

func (n *castPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 1 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newCastPlanExpression(children[0], n.castType, n.implicit), nil
}

// caseBlockPlanExpression is one when/then arm of a case
type caseBlockPlanExpression struct {
	condition types.PlanExpression
	body      types.PlanExpression
}

func newCaseBlockPlanExpression(condition types.PlanExpression, body types.PlanExpression) *caseBlockPlanExpression {
	return &caseBlockPlanExpression{
		condition: condition,
		body:      body,
	}
}

func (n *caseBlockPlanExpression) Type() parser.ExprDataType {
	return n.body.Type()
}

func (n *caseBlockPlanExpression) String() string {
	return fmt.Sprintf("when %s then %s", n.condition.String(), n.body.String())
}

func (n *caseBlockPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["condition"] = n.condition.Plan()
	result["body"] = n.body.Plan()
	return result
}

func (n *caseBlockPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{
		n.condition,
		n.body,
	}
}

func (n *caseBlockPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 2 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newCaseBlockPlanExpression(children[0], children[1]), nil
}

// casePlanExpression is a case expression in searched form; the binder
// rewrites the operand form into this by turning each when into an
// equality test.
type casePlanExpression struct {
	blocks   []types.PlanExpression
	elseExpr types.PlanExpression

	resultDataType parser.ExprDataType
}

func newCasePlanExpression(blocks []types.PlanExpression, elseExpr types.PlanExpression, dataType parser.ExprDataType) *casePlanExpression {
	return &casePlanExpression{
		blocks:         blocks,
		elseExpr:       elseExpr,
		resultDataType: dataType,
	}
}

func (n *casePlanExpression) Type() parser.ExprDataType {
	return n.resultDataType
}

func (n *casePlanExpression) String() string {
	var b strings.Builder
	b.WriteString("case")
	for _, blk := range n.blocks {
		b.WriteString(" ")
		b.WriteString(blk.String())
	}
	if n.elseExpr != nil {
		b.WriteString(" else ")
		b.WriteString(n.elseExpr.String())
	}
	b.WriteString(" end")
	return b.String()
}

func (n *casePlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	blocks := make([]interface{}, len(n.blocks))
	for i, blk := range n.blocks {
		blocks[i] = blk.Plan()
	}
	result["blocks"] = blocks
	if n.elseExpr != nil {
		result["else"] = n.elseExpr.Plan()
	}
	return result
}

func (n *casePlanExpression) Children() []types.PlanExpression {
	children := make([]types.PlanExpression, 0, len(n.blocks)+1)
	children = append(children, n.blocks...)
	if n.elseExpr != nil {
		children = append(children, n.elseExpr)
	}
	return children
}

func (n *casePlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	expected := len(n.blocks)
	if n.elseExpr != nil {
		expected++
	}
	if len(children) != expected {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	var elseExpr types.PlanExpression
	blocks := children[:len(n.blocks)]
	if n.elseExpr != nil {
		elseExpr = children[len(children)-1]
	}
	return newCasePlanExpression(blocks, elseExpr, n.resultDataType), nil
}

// callPlanExpression is a scalar function call
type callPlanExpression struct {
	name string
	args []types.PlanExpression

	returnDataType parser.ExprDataType
}

func newCallPlanExpression(name string, args []types.PlanExpression, returnDataType parser.ExprDataType) *callPlanExpression {
	return &callPlanExpression{
		name:           name,
		args:           args,
		returnDataType: returnDataType,
	}
}

func (n *callPlanExpression) Type() parser.ExprDataType {
	return n.returnDataType
}

func (n *callPlanExpression) String() string {
	args := make([]string, len(n.args))
	for i, a := range n.args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.name, strings.Join(args, ","))
}

func (n *callPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["name"] = n.name
	args := make([]interface{}, len(n.args))
	for i, a := range n.args {
		args[i] = a.Plan()
	}
	result["args"] = args
	return result
}

func (n *callPlanExpression) Children() []types.PlanExpression {
	return n.args
}

func (n *callPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != len(n.args) {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return newCallPlanExpression(n.name, children, n.returnDataType), nil
}

// subquery modes
type subqueryMode int

const (
	subqueryModeScalar subqueryMode = iota
	subqueryModeExists
	subqueryModeIn
)

// subqueryPlanExpression embeds a compiled subquery in an expression tree.
// The planner hoists these into joins wherever it can; the ones that remain
// are evaluated per row at execution time.
type subqueryPlanExpression struct {
	op         types.PlanOperator
	mode       subqueryMode
	correlated bool

	resultDataType parser.ExprDataType
}

func newSubqueryPlanExpression(op types.PlanOperator, mode subqueryMode, correlated bool, dataType parser.ExprDataType) *subqueryPlanExpression {
	return &subqueryPlanExpression{
		op:             op,
		mode:           mode,
		correlated:     correlated,
		resultDataType: dataType,
	}
}

func (n *subqueryPlanExpression) Type() parser.ExprDataType {
	return n.resultDataType
}

func (n *subqueryPlanExpression) String() string {
	return "(subquery)"
}

func (n *subqueryPlanExpression) Plan() map[string]interface{} {
	result := make(map[string]interface{})
	result["_expr"] = fmt.Sprintf("%T", n)
	result["dataType"] = n.Type().TypeDescription()
	result["correlated"] = n.correlated
	result["child"] = n.op.Plan()
	return result
}

func (n *subqueryPlanExpression) Children() []types.PlanExpression {
	return []types.PlanExpression{}
}

func (n *subqueryPlanExpression) WithChildren(children ...types.PlanExpression) (types.PlanExpression, error) {
	if len(children) != 0 {
		return nil, sql.NewErrInternalf("unexpected number of children '%d'", len(children))
	}
	return n, nil
}
