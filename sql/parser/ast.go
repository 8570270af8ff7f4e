// Package parser defines the SQL abstract syntax tree consumed by the
// planner. The text-to-AST parser itself ships with the session front end;
// this package holds only the shared node definitions and the language-layer
// data types attached to them during planning. AST nodes are read-only
// inputs to the planner and are never mutated by it.
package parser

// Node is implemented by every AST node.
type Node interface {
	node()
	// Pos returns the position of the node in the original SQL text.
	Pos() Pos
}

// Statement is implemented by top-level statement nodes.
type Statement interface {
	Node
	stmt()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	expr()
}

// Source is implemented by nodes that can appear in a FROM clause.
type Source interface {
	Node
	source()
}

func (*SelectStatement) stmt()        {}
func (*SetOperationStatement) stmt()  {}
func (*InsertStatement) stmt()        {}
func (*CreateTableAsStatement) stmt() {}
func (*ExplainStatement) stmt()       {}

func (*SelectStatement) node()        {}
func (*SetOperationStatement) node()  {}
func (*InsertStatement) node()        {}
func (*CreateTableAsStatement) node() {}
func (*ExplainStatement) node()       {}
func (*WithClause) node()             {}
func (*CTE) node()                    {}
func (*ResultColumn) node()           {}
func (*OrderingTerm) node()           {}
func (*QualifiedTableName) node()     {}
func (*JoinClause) node()             {}
func (*JoinOperator) node()           {}
func (*OnConstraint) node()           {}
func (*ParenSource) node()            {}
func (*Ident) node()                  {}
func (*QualifiedRef) node()           {}
func (*IntegerLit) node()             {}
func (*FloatLit) node()               {}
func (*StringLit) node()              {}
func (*BoolLit) node()                {}
func (*NullLit) node()                {}
func (*UnaryExpr) node()              {}
func (*BinaryExpr) node()             {}
func (*ParenExpr) node()              {}
func (*Range) node()                  {}
func (*ExprList) node()               {}
func (*Call) node()                   {}
func (*WindowDef) node()              {}
func (*CastExpr) node()               {}
func (*Type) node()                   {}
func (*CaseExpr) node()               {}
func (*CaseBlock) node()              {}
func (*Exists) node()                 {}

func (*Ident) expr()           {}
func (*QualifiedRef) expr()    {}
func (*IntegerLit) expr()      {}
func (*FloatLit) expr()        {}
func (*StringLit) expr()       {}
func (*BoolLit) expr()         {}
func (*NullLit) expr()         {}
func (*UnaryExpr) expr()       {}
func (*BinaryExpr) expr()      {}
func (*ParenExpr) expr()       {}
func (*Range) expr()           {}
func (*ExprList) expr()        {}
func (*Call) expr()            {}
func (*CastExpr) expr()        {}
func (*CaseExpr) expr()        {}
func (*Exists) expr()          {}
func (*SelectStatement) expr() {}

func (*QualifiedTableName) source() {}
func (*JoinClause) source()         {}
func (*ParenSource) source()        {}
func (*SelectStatement) source()    {}

// SelectStatement is a single SELECT query. It doubles as an expression
// (scalar subquery) and as a source (derived table).
type SelectStatement struct {
	With *WithClause // optional WITH clause

	Select   Pos
	Distinct Pos // position of DISTINCT; invalid if absent

	Columns []*ResultColumn

	Source    Source // FROM clause contents; nil if none
	WhereExpr Expr   // WHERE clause predicate; nil if none

	GroupByExprs []Expr
	HavingExpr   Expr

	OrderingTerms []*OrderingTerm

	LimitExpr  Expr
	OffsetExpr Expr
}

func (s *SelectStatement) Pos() Pos { return s.Select }

// HasWildcard returns true if any result column contains a star.
func (s *SelectStatement) HasWildcard() bool {
	for _, col := range s.Columns {
		if col.Star.IsValid() {
			return true
		}
		if ref, ok := col.Expr.(*QualifiedRef); ok && ref.Star.IsValid() {
			return true
		}
	}
	return false
}

// SetOp identifies a set operation.
type SetOp int

const (
	UNION SetOp = iota
	INTERSECT
	EXCEPT
)

func (op SetOp) String() string {
	switch op {
	case UNION:
		return "UNION"
	case INTERSECT:
		return "INTERSECT"
	case EXCEPT:
		return "EXCEPT"
	default:
		return "SetOp(?)"
	}
}

// SetOperationStatement combines two queries with UNION, INTERSECT or
// EXCEPT. X and Y are each a *SelectStatement or a nested
// *SetOperationStatement.
type SetOperationStatement struct {
	X     Statement
	Op    SetOp
	OpPos Pos
	All   Pos // position of ALL; invalid means distinct semantics
	Y     Statement
}

func (s *SetOperationStatement) Pos() Pos { return s.OpPos }

// InsertStatement is INSERT INTO table (columns...) <query>.
type InsertStatement struct {
	Insert  Pos
	Table   *QualifiedTableName
	Columns []*Ident // optional explicit column list
	Query   Statement
}

func (s *InsertStatement) Pos() Pos { return s.Insert }

// CreateTableAsStatement is CREATE TABLE name AS <query>.
type CreateTableAsStatement struct {
	Create Pos
	Name   *QualifiedTableName
	Query  Statement
}

func (s *CreateTableAsStatement) Pos() Pos { return s.Create }

// ExplainStatement wraps another statement and asks for its plan.
type ExplainStatement struct {
	Explain Pos
	Stmt    Statement
}

func (s *ExplainStatement) Pos() Pos { return s.Explain }

// WithClause is the WITH prelude of a query.
type WithClause struct {
	With      Pos
	Recursive Pos // position of RECURSIVE; invalid if absent
	CTEs      []*CTE
}

func (c *WithClause) Pos() Pos { return c.With }

// CTE is one common table expression in a WITH clause.
type CTE struct {
	Name    *Ident
	Columns []*Ident // optional column aliases
	Select  Statement
}

func (c *CTE) Pos() Pos { return c.Name.NamePos }

// ResultColumn is one item in a SELECT list.
type ResultColumn struct {
	Star  Pos // position of bare *; invalid if Expr is set
	Expr  Expr
	Alias *Ident
}

func (c *ResultColumn) Pos() Pos {
	if c.Star.IsValid() {
		return c.Star
	}
	return c.Expr.Pos()
}

// OrderingTerm is one item in an ORDER BY clause.
type OrderingTerm struct {
	X    Expr
	Asc  Pos
	Desc Pos
}

func (t *OrderingTerm) Pos() Pos { return t.X.Pos() }

// QualifiedTableName is a (possibly schema-qualified, possibly aliased)
// table reference.
type QualifiedTableName struct {
	Qualifier *Ident // optional schema qualifier
	Name      *Ident
	Alias     *Ident
}

func (n *QualifiedTableName) Pos() Pos { return n.Name.NamePos }

// AliasOrName returns the name this relation is visible under.
func (n *QualifiedTableName) AliasOrName() string {
	if n.Alias != nil {
		return n.Alias.Name
	}
	return n.Name.Name
}

// JoinKind identifies the join flavor.
type JoinKind int

const (
	JoinKindInner JoinKind = iota
	JoinKindLeft
	JoinKindCross
)

func (k JoinKind) String() string {
	switch k {
	case JoinKindInner:
		return "INNER"
	case JoinKindLeft:
		return "LEFT"
	case JoinKindCross:
		return "CROSS"
	default:
		return "JoinKind(?)"
	}
}

// JoinOperator is the operator between two join operands.
type JoinOperator struct {
	OpPos Pos
	Kind  JoinKind
}

func (op *JoinOperator) Pos() Pos { return op.OpPos }

// JoinConstraint is the ON constraint of a join.
type JoinConstraint interface {
	Node
	joinConstraint()
}

func (*OnConstraint) joinConstraint() {}

// OnConstraint is an ON <expr> join constraint.
type OnConstraint struct {
	On Pos
	X  Expr
}

func (c *OnConstraint) Pos() Pos { return c.On }

// JoinClause joins two sources. Joins accumulate left-to-right, so X may
// itself be a JoinClause.
type JoinClause struct {
	X          Source
	Operator   *JoinOperator
	Y          Source
	Constraint JoinConstraint // nil for CROSS joins
}

func (c *JoinClause) Pos() Pos { return c.X.Pos() }

// ParenSource is a parenthesized source with an optional alias.
type ParenSource struct {
	Lparen Pos
	X      Source
	Rparen Pos
	Alias  *Ident
}

func (s *ParenSource) Pos() Pos { return s.Lparen }

// Ident is an identifier.
type Ident struct {
	NamePos Pos
	Name    string
}

func (i *Ident) Pos() Pos { return i.NamePos }

func (i *Ident) String() string { return i.Name }

// IdentName returns the name of an identifier, handling nil.
func IdentName(ident *Ident) string {
	if ident == nil {
		return ""
	}
	return ident.Name
}

// QualifiedRef is a column reference, optionally qualified with a table
// name or alias. Table.* is represented with a valid Star position.
type QualifiedRef struct {
	Table  *Ident // nil when unqualified
	Column *Ident // nil when Star is set
	Star   Pos
}

func (r *QualifiedRef) Pos() Pos {
	if r.Table != nil {
		return r.Table.NamePos
	}
	if r.Column != nil {
		return r.Column.NamePos
	}
	return r.Star
}

// IntegerLit is an integer literal. Value keeps the source spelling.
type IntegerLit struct {
	ValuePos Pos
	Value    string
}

func (l *IntegerLit) Pos() Pos { return l.ValuePos }

// FloatLit is a floating point or decimal literal.
type FloatLit struct {
	ValuePos Pos
	Value    string
}

func (l *FloatLit) Pos() Pos { return l.ValuePos }

// StringLit is a single-quoted string literal, already unescaped.
type StringLit struct {
	ValuePos Pos
	Value    string
}

func (l *StringLit) Pos() Pos { return l.ValuePos }

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	ValuePos Pos
	Value    bool
}

func (l *BoolLit) Pos() Pos { return l.ValuePos }

// NullLit is NULL.
type NullLit struct {
	ValuePos Pos
}

func (l *NullLit) Pos() Pos { return l.ValuePos }

// UnaryExpr is a unary operator applied to an operand.
type UnaryExpr struct {
	OpPos Pos
	Op    Token
	X     Expr
}

func (e *UnaryExpr) Pos() Pos { return e.OpPos }

// BinaryExpr is a binary operator applied to two operands. For BETWEEN the
// right operand is a *Range; for IN it is an *ExprList or a subquery.
type BinaryExpr struct {
	X     Expr
	OpPos Pos
	Op    Token
	Y     Expr
}

func (e *BinaryExpr) Pos() Pos { return e.X.Pos() }

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Lparen Pos
	X      Expr
	Rparen Pos
}

func (e *ParenExpr) Pos() Pos { return e.Lparen }

// Range is the "lo AND hi" operand of a BETWEEN.
type Range struct {
	X   Expr
	And Pos
	Y   Expr
}

func (e *Range) Pos() Pos { return e.X.Pos() }

// ExprList is a parenthesized, comma separated list of expressions.
type ExprList struct {
	Lparen Pos
	Exprs  []Expr
	Rparen Pos
}

func (e *ExprList) Pos() Pos { return e.Lparen }

// Call is a function invocation. Star is valid for count(*). Over, when
// non-nil, makes this a window function call.
type Call struct {
	Name     *Ident
	Lparen   Pos
	Star     Pos
	Distinct Pos
	Args     []Expr
	Rparen   Pos
	Over     *WindowDef
}

func (e *Call) Pos() Pos { return e.Name.NamePos }

// WindowDef is the OVER (...) clause of a window function call.
type WindowDef struct {
	Over        Pos
	PartitionBy []Expr
	OrderBy     []*OrderingTerm
}

func (d *WindowDef) Pos() Pos { return d.Over }

// CastExpr is CAST(x AS type).
type CastExpr struct {
	Cast   Pos
	Lparen Pos
	X      Expr
	As     Pos
	Type   *Type
	Rparen Pos
}

func (e *CastExpr) Pos() Pos { return e.Cast }

// Type is a type name as written in a CAST, with an optional scale for
// decimals.
type Type struct {
	Name  *Ident
	Scale *IntegerLit
}

func (t *Type) Pos() Pos { return t.Name.NamePos }

// CaseExpr is a CASE expression in either the "CASE operand WHEN" or the
// searched "CASE WHEN" form.
type CaseExpr struct {
	Case     Pos
	Operand  Expr // nil for the searched form
	Blocks   []*CaseBlock
	ElseExpr Expr // nil if no ELSE
	End      Pos
}

func (e *CaseExpr) Pos() Pos { return e.Case }

// CaseBlock is one WHEN/THEN pair.
type CaseBlock struct {
	When      Pos
	Condition Expr
	Then      Pos
	Body      Expr
}

func (b *CaseBlock) Pos() Pos { return b.When }

// Exists is [NOT] EXISTS (select).
type Exists struct {
	Not    Pos // invalid when not negated
	Exists Pos
	Select *SelectStatement
}

func (e *Exists) Pos() Pos {
	if e.Not.IsValid() {
		return e.Not
	}
	return e.Exists
}
