// Package plan compiles a query's abstract expression tree into an
// ops.Operator DAG: it lowers filters, selects an encoding-invariant
// compilation path wherever a literal can be pushed into a column's
// native encoding instead of decoding the column, synthesizes a grouping
// key for GROUP BY, and normalizes an Average aggregate into a Sum/Count
// pair the driver divides once after merging every partition's
// contribution. The Builder is the only thing in this package that
// touches buffer.Ref — everything upstream (ast, column references,
// literals) is an inert description of intent.
package plan

import (
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

// Expr is the query's abstract expression tree. Every concrete type below
// implements it as a marker; Compile type-switches over them.
type Expr interface{ exprNode() }

// ColumnRef names a column to read from the partition being compiled
// against.
type ColumnRef struct{ Name string }

func (ColumnRef) exprNode() {}

// Literal is a constant operand, specialized by kind at construction
// time so Compile never has to re-derive it from an interface{}.
type Literal struct {
	Enc types.Encoding
	I   int64
	F   float64
	S   string
}

func (Literal) exprNode() {}

func IntLiteral(v int64) Literal    { return Literal{Enc: types.ScalarI64, I: v} }
func FloatLiteral(v float64) Literal { return Literal{Enc: types.ScalarF64, F: v} }
func StrLiteral(v string) Literal   { return Literal{Enc: types.ScalarStr, S: v} }

// Compare is a comparison between two sub-expressions.
type Compare struct {
	Kind        ops.CompareKind
	Left, Right Expr
}

func (Compare) exprNode() {}

// Arith is an integer or float arithmetic expression between two
// sub-expressions; Float selects the FloatArithmetic operator family.
type Arith struct {
	Kind        ops.ArithKind
	Left, Right Expr
	Float       bool
}

func (Arith) exprNode() {}

// And/Or/Not combine boolean sub-expressions (column-typed ByteVec masks).
type And struct{ Left, Right Expr }
type Or struct{ Left, Right Expr }
type Not struct{ X Expr }

func (And) exprNode() {}
func (Or) exprNode()  {}
func (Not) exprNode() {}

// RegexMatch tests a string expression against a pattern. The pattern is
// compiled and validated once, at plan time, by CompileRegexPattern
// (called from Builder.compileRegex) before any Regex operator is
// constructed — an invalid pattern is
// reported as a plan-time error rather than surfacing at execution.
type RegexMatch struct {
	X       Expr
	Pattern string
}

func (RegexMatch) exprNode() {}

// ToYear converts an i64 unix-seconds expression to its calendar year.
type ToYear struct{ X Expr }

func (ToYear) exprNode() {}

// AggKind mirrors ops.AggKind plus the derived Average form that the
// two-phase normalization expands into Sum and Count sub-aggregates.
type AggKind uint8

const (
	AggSum AggKind = iota
	AggCount
	AggMin
	AggMax
	AggAverage
	AggExists
)

// Aggregate reduces X grouped by GroupBy (nil for a whole-partition
// reduction with no GROUP BY).
type Aggregate struct {
	Kind    AggKind
	X       Expr
	GroupBy []Expr
}

func (Aggregate) exprNode() {}

// Select projects one expression with no aggregation; used for a bare
// SELECT with no GROUP BY or aggregate function.
type Select struct{ X Expr }

func (Select) exprNode() {}
