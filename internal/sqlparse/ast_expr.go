package sqlparse

// ColumnRef is a possibly-qualified column reference.
type ColumnRef struct {
	Schema string
	Table  string
	Column string
}

func (*ColumnRef) node()     {}
func (*ColumnRef) exprNode() {}

// LiteralType classifies a literal.
type LiteralType int

const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBoolean
	LiteralNull
)

// Literal is a user-written constant. Value holds the unescaped text.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) node()     {}
func (*Literal) exprNode() {}

// Param is a placeholder written by the user ($1 or ?).
type Param struct {
	Text string
}

func (*Param) node()     {}
func (*Param) exprNode() {}

// BindParam is a value bound outside the SQL text. The formatter renders it
// as a numbered placeholder and collects Name and Value into the argument
// list. Bindings with equal Name and Value share one placeholder.
type BindParam struct {
	Name  string
	Value string
}

func (*BindParam) node()     {}
func (*BindParam) exprNode() {}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// UnaryExpr is NOT, unary minus or unary plus.
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// ParenExpr is an explicitly parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) node()     {}
func (*ParenExpr) exprNode() {}

// FuncCall is a function call. Function semantics are not interpreted.
type FuncCall struct {
	Name     string
	Quoted   bool // name was written in double quotes
	Niladic  bool // CURRENT_DATE and friends, written without parentheses
	Distinct bool
	Star     bool // COUNT(*)
	Args     []Expr
	OrderBy  []*OrderByItem // aggregate ORDER BY inside the call
	Filter   Expr
	Window   *WindowSpec
}

func (*FuncCall) node()     {}
func (*FuncCall) exprNode() {}

// WindowSpec is an OVER clause, either a named window or an inline spec.
type WindowSpec struct {
	Name        string
	PartitionBy []Expr
	OrderBy     []*OrderByItem
	Frame       *FrameSpec
}

// FrameType is ROWS, RANGE or GROUPS.
type FrameType string

const (
	FrameRows   FrameType = "ROWS"
	FrameRange  FrameType = "RANGE"
	FrameGroups FrameType = "GROUPS"
)

// FrameSpec is a window frame.
type FrameSpec struct {
	Type  FrameType
	Start *FrameBound
	End   *FrameBound
}

// FrameBoundType identifies a frame bound.
type FrameBoundType string

const (
	FrameUnboundedPreceding FrameBoundType = "UNBOUNDED PRECEDING"
	FrameUnboundedFollowing FrameBoundType = "UNBOUNDED FOLLOWING"
	FrameCurrentRow         FrameBoundType = "CURRENT ROW"
	FrameExprPreceding      FrameBoundType = "PRECEDING"
	FrameExprFollowing      FrameBoundType = "FOLLOWING"
)

// FrameBound is one end of a window frame.
type FrameBound struct {
	Type   FrameBoundType
	Offset Expr
}

// CaseExpr is a simple or searched CASE.
type CaseExpr struct {
	Operand Expr
	Whens   []*WhenClause
	Else    Expr
}

func (*CaseExpr) node()     {}
func (*CaseExpr) exprNode() {}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr is CAST(x AS t) or x::t.
type CastExpr struct {
	Expr     Expr
	TypeName *TypeName
	Postfix  bool // written as x::t
}

func (*CastExpr) node()     {}
func (*CastExpr) exprNode() {}

// TypeName is a cast target: one or more words with optional integer
// modifiers, e.g. DOUBLE PRECISION or DECIMAL(18, 3).
type TypeName struct {
	Words     []string
	Modifiers []string
}

// InExpr is x [NOT] IN (list) or x [NOT] IN (subquery).
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

func (*InExpr) node()     {}
func (*InExpr) exprNode() {}

// BetweenExpr is x [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) node()     {}
func (*BetweenExpr) exprNode() {}

// IsExpr covers IS [NOT] NULL / TRUE / FALSE and IS [NOT] DISTINCT FROM.
type IsExpr struct {
	Expr  Expr
	Not   bool
	Kind  IsKind
	Right Expr // for IS DISTINCT FROM
}

func (*IsExpr) node()     {}
func (*IsExpr) exprNode() {}

// IsKind identifies the predicate of an IS expression.
type IsKind int

const (
	IsNull IsKind = iota
	IsTrue
	IsFalse
	IsDistinctFrom
)

// LikeExpr is x [NOT] LIKE|ILIKE pattern [ESCAPE e].
type LikeExpr struct {
	Expr            Expr
	Not             bool
	CaseInsensitive bool
	Pattern         Expr
	Escape          Expr
}

func (*LikeExpr) node()     {}
func (*LikeExpr) exprNode() {}

// ExistsExpr is EXISTS (subquery). NOT EXISTS parses as a UnaryExpr.
type ExistsExpr struct {
	Query *SelectStmt
}

func (*ExistsExpr) node()     {}
func (*ExistsExpr) exprNode() {}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	Query *SelectStmt
}

func (*SubqueryExpr) node()     {}
func (*SubqueryExpr) exprNode() {}

// IntervalExpr is INTERVAL 'text' [unit].
type IntervalExpr struct {
	Value string
	Unit  string
}

func (*IntervalExpr) node()     {}
func (*IntervalExpr) exprNode() {}

// ExtractExpr is EXTRACT(field FROM expr).
type ExtractExpr struct {
	Field string
	From  Expr
}

func (*ExtractExpr) node()     {}
func (*ExtractExpr) exprNode() {}
