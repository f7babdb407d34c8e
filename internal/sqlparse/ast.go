package sqlparse

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// TableRef is a marker interface for nodes that can appear as a FROM source.
type TableRef interface {
	Node
	tableRefNode()
}

// QueryTerm is an operand of a set operation: a plain SELECT core or a
// parenthesized query.
type QueryTerm interface {
	Node
	queryTermNode()
}

// === Statements ===

// SelectStmt is a complete query: optional WITH, a body of one or more
// set-operation operands, and the trailing ORDER BY / LIMIT / OFFSET that
// apply to the combined result.
type SelectStmt struct {
	With    *WithClause
	Body    *SelectBody
	OrderBy []*OrderByItem
	Limit   *uint64 // nil when absent or LIMIT ALL
	Offset  Expr
	Locking string // FOR UPDATE / FOR SHARE, kept only so it can be rejected
}

func (*SelectStmt) node()     {}
func (*SelectStmt) stmtNode() {}

// UnsupportedStmt is any recognisable statement that is not a query,
// for example INSERT, CREATE or COPY. Its tokens are consumed but not
// interpreted.
type UnsupportedStmt struct {
	Keyword string // leading keyword, upper case
}

func (*UnsupportedStmt) node()     {}
func (*UnsupportedStmt) stmtNode() {}

// WithClause is a list of common table expressions.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE is a single named WITH binding. Query is an UnsupportedStmt for
// data-modifying bodies.
type CTE struct {
	Name    string
	Columns []string
	Query   Stmt
}

// SetOpType identifies a set operator.
type SetOpType int

const (
	SetOpNone SetOpType = iota
	SetOpUnion
	SetOpIntersect
	SetOpExcept
)

func (op SetOpType) String() string {
	switch op {
	case SetOpUnion:
		return "UNION"
	case SetOpIntersect:
		return "INTERSECT"
	case SetOpExcept:
		return "EXCEPT"
	}
	return ""
}

// SelectBody is a chain of query terms joined by set operators, kept in
// source order so that the database applies its own precedence rules.
type SelectBody struct {
	Left  QueryTerm
	Op    SetOpType
	All   bool
	Right *SelectBody
}

// SelectCore is a single SELECT ... FROM ... WHERE ... block.
type SelectCore struct {
	Distinct bool
	Columns  []*SelectItem
	Into     *TableName // SELECT INTO target, rejected by validation
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Windows  []*WindowDef
}

func (*SelectCore) node()          {}
func (*SelectCore) queryTermNode() {}

// ParenQuery is a parenthesized query used as a set-operation operand.
type ParenQuery struct {
	Query *SelectStmt
}

func (*ParenQuery) node()          {}
func (*ParenQuery) queryTermNode() {}

// SelectItem is one entry of the projection list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr
	Alias     string
}

// OrderByItem is one ORDER BY key.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool // nil = default, true = NULLS FIRST, false = NULLS LAST
}

// WindowDef is a named window from a WINDOW clause.
type WindowDef struct {
	Name string
	Spec *WindowSpec
}

// === FROM ===

// FromClause is a source followed by joins in source order.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// JoinType identifies a join kind.
type JoinType int

const (
	JoinComma JoinType = iota // FROM a, b
	JoinInner
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL JOIN"
	case JoinCross:
		return "CROSS JOIN"
	}
	return ","
}

// Join is a single join step.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr     // ON clause
	Using     []string // USING (col, ...)
}

// TableName is a reference to a named table, a CTE or a base table.
type TableName struct {
	Schema string
	Name   string
	Alias  string
}

func (*TableName) node()         {}
func (*TableName) tableRefNode() {}

// Qualified returns the schema-qualified name used for catalog lookups.
func (t *TableName) Qualified() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// DerivedTable is a subquery in FROM. Query is an UnsupportedStmt when the
// parenthesized body was not a query.
type DerivedTable struct {
	Lateral       bool
	Query         Stmt
	Alias         string
	ColumnAliases []string
}

func (*DerivedTable) node()         {}
func (*DerivedTable) tableRefNode() {}

// FuncTable is a table-valued function call in FROM.
type FuncTable struct {
	Func  *FuncCall
	Alias string
}

func (*FuncTable) node()         {}
func (*FuncTable) tableRefNode() {}

// LiteralTable is a string used as a FROM source, e.g. FROM 'data.csv'.
type LiteralTable struct {
	Path  string
	Alias string
}

func (*LiteralTable) node()         {}
func (*LiteralTable) tableRefNode() {}
