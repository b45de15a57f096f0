package plan

import (
	"fmt"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/codec"
	"github.com/cswinter/locustdb-go/errs"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

// Compile lowers e into an operator DAG against b.Partition, returning the
// Ref holding its result. Repeated column references and literals
// resolve to the same Ref within one Builder (CSE, see builder.go).
func (b *Builder) Compile(e Expr) (buffer.Ref, error) {
	if key, ok := cseKey(e); ok {
		if ref, hit := b.cache[key]; hit {
			return ref, nil
		}
		ref, err := b.compile(e)
		if err != nil {
			return buffer.Ref{}, err
		}
		b.cache[key] = ref

		return ref, nil
	}

	return b.compile(e)
}

func (b *Builder) compile(e Expr) (buffer.Ref, error) {
	switch v := e.(type) {
	case ColumnRef:
		return b.compileColumn(v.Name)
	case Literal:
		return b.compileLiteral(v), nil
	case Compare:
		return b.compileCompare(v)
	case Arith:
		return b.compileArith(v)
	case And:
		return b.compileBoolean(ops.BoolAnd, v.Left, v.Right)
	case Or:
		return b.compileBoolean(ops.BoolOr, v.Left, v.Right)
	case Not:
		return b.compileNot(v.X)
	case RegexMatch:
		return b.compileRegex(v)
	case ToYear:
		return b.compileToYear(v.X)
	case filteredColumn:
		return b.compileFilteredColumn(v)
	default:
		return buffer.Ref{}, errs.New(errs.NotImplemented, "Compile", fmt.Errorf("%w: unhandled expr type %T", errs.ErrUnsupportedOp, e))
	}
}

// compileLiteral allocates a slot of the literal's encoding and emits no
// operator, so literals never appear as DAG nodes; an operator with a
// literal operand receives its value as a buffer.Scalar (see scalarOf).
func (b *Builder) compileLiteral(lit Literal) buffer.Ref {
	ref := b.alloc.Alloc(lit.Enc)

	return ref
}

// scalarOf materializes a Literal's runtime Scalar value for operators
// that take a (scalar, vector) form directly, bypassing the scratchpad.
func scalarOf(lit Literal) buffer.Scalar {
	switch lit.Enc {
	case types.ScalarI64:
		return buffer.ScalarInt(lit.I)
	case types.ScalarF64:
		return buffer.ScalarFloat(lit.F)
	default:
		return buffer.ScalarStr(lit.S)
	}
}

// compileColumn reads a named column's sections and applies its codec's
// decode chain, producing a fully materialized vector Ref. This is the
// encoding-invariant compilation path's fallback: callers that can instead
// push a literal into the column's native encoding (see compileCompare)
// skip this decode entirely.
func (b *Builder) compileColumn(name string) (buffer.Ref, error) {
	col, ok := b.Partition.Column(name)
	if !ok {
		return buffer.Ref{}, errs.New(errs.TypeError, "compileColumn", fmt.Errorf("%w: column %q not found", errs.ErrTypeMismatch, name))
	}

	c, ok := col.Codec.(codec.Codec)
	if !ok {
		return buffer.Ref{}, errs.New(errs.TypeError, "compileColumn", fmt.Errorf("%w: column %q has unrecognized codec", errs.ErrTypeMismatch, name))
	}

	secIdx := 0
	cur := b.readSection(name, col, secIdx)

	var presence buffer.Ref
	for _, op := range c.Ops {
		var err error
		cur, secIdx, presence, err = b.applyCodecOp(name, col, op, cur, secIdx, presence)
		if err != nil {
			return buffer.Ref{}, err
		}
	}

	return cur, nil
}

func (b *Builder) readSection(name string, col *catalog.Column, idx int) buffer.Ref {
	sec := col.Sections[idx]
	out := b.alloc.Alloc(sec.Encoding)

	return b.emit(ops.NewColumnSection(name, sec, out), out)
}

func (b *Builder) applyCodecOp(name string, col *catalog.Column, op codec.Op, cur buffer.Ref, secIdx int, presence buffer.Ref) (buffer.Ref, int, buffer.Ref, error) {
	switch o := op.(type) {
	case codec.Nullable:
		presence = cur
		secIdx++
		cur = b.readSection(name, col, secIdx)

		return cur, secIdx, presence, nil
	case codec.RoaringNullable:
		presOut := b.alloc.Alloc(types.ByteVec)
		presence = b.emit(ops.NewPresenceFromRoaring(cur, col.Length, presOut), presOut)
		secIdx++
		cur = b.readSection(name, col, secIdx)

		return cur, secIdx, presence, nil
	case codec.PushDataSection:
		secIdx = o.Index
		cur = b.readSection(name, col, secIdx)

		return cur, secIdx, presence, nil
	case codec.Add:
		out := b.alloc.Alloc(types.I64)
		sc := buffer.ScalarInt(o.K)
		cur = b.emit(ops.NewArithmetic(ops.ArithAdd, cur, buffer.Ref{}, nil, &sc, out), out)

		return cur, secIdx, presence, nil
	case codec.Delta:
		out := b.alloc.Alloc(types.I64)
		cur = b.emit(ops.NewDeltaDecode(cur, out), out)

		return cur, secIdx, presence, nil
	case codec.ToI64:
		out := b.alloc.Alloc(types.I64)
		cur = b.emit(ops.NewTypeConversion(cur, out), out)

		return cur, secIdx, presence, nil
	case codec.LZ4:
		out := b.alloc.Alloc(o.Width)
		raw := col.Sections[secIdx].U8
		cur = b.emit(ops.NewLZ4Decode(raw, o.DecodedLen, out), out)
		secIdx++

		return cur, secIdx, presence, nil
	case codec.Zstd:
		out := b.alloc.Alloc(o.Width)
		raw := col.Sections[secIdx].U8
		cur = b.emit(ops.NewZstdDecode(raw, o.DecodedLen, out), out)
		secIdx++

		return cur, secIdx, presence, nil
	case codec.S2:
		out := b.alloc.Alloc(o.Width)
		raw := col.Sections[secIdx].U8
		cur = b.emit(ops.NewS2Decode(raw, o.DecodedLen, out), out)
		secIdx++

		return cur, secIdx, presence, nil
	case codec.UnpackStrings:
		return cur, secIdx, presence, nil // heap+offsets already materialized by readSection
	case codec.Unknown:
		return buffer.Ref{}, secIdx, presence, errs.New(errs.Fatal, "applyCodecOp", errs.ErrUnknownCodecOp)
	default:
		return buffer.Ref{}, secIdx, presence, errs.New(errs.NotImplemented, "applyCodecOp",
			fmt.Errorf("%w: codec op %s not supported at runtime", errs.ErrUnsupportedOp, op))
	}
}

// compileCompare implements the encoding-invariant rule: when one side is
// a column and the other a literal, it first tries encoding the literal
// into the column's native (undecoded) representation via codec.EncodeInt
// / codec.EncodeStr, comparing against the still-encoded column and
// avoiding a decode pass entirely. It falls back to decoding both sides
// when the codec can't represent the literal (e.g. it crosses a Delta or
// LZ4 boundary).
func (b *Builder) compileCompare(c Compare) (buffer.Ref, error) {
	if ref, ok, err := b.tryEncodingInvariantCompare(c); ok || err != nil {
		return ref, err
	}

	left, err := b.Compile(c.Left)
	if err != nil {
		return buffer.Ref{}, err
	}
	right, err := b.Compile(c.Right)
	if err != nil {
		return buffer.Ref{}, err
	}

	enc, leftScalar, rightScalar := b.resolveOperands(c.Left, c.Right, left, right)
	out := b.alloc.Alloc(types.U8)

	return b.emit(ops.NewCompare(c.Kind, enc, left, right, leftScalar, rightScalar, out), out), nil
}

// tryEncodingInvariantCompare attempts the literal-pushdown path described
// on compileCompare. ok is false when the shape doesn't apply (neither
// side is a bare ColumnRef+Literal pair) or the codec can't encode the
// literal, in which case the caller falls back to full decode.
func (b *Builder) tryEncodingInvariantCompare(c Compare) (buffer.Ref, bool, error) {
	col, lit, litOnRight, ok := columnLiteralShape(c.Left, c.Right)
	if !ok {
		return buffer.Ref{}, false, nil
	}
	column, found := b.Partition.Column(col.Name)
	if !found {
		return buffer.Ref{}, false, nil
	}
	cc, ok := column.Codec.(codec.Codec)
	if !ok || lit.Enc != types.ScalarI64 {
		return buffer.Ref{}, false, nil
	}

	encoded, ok := cc.EncodeInt(lit.I)
	if !ok {
		return buffer.Ref{}, false, nil
	}

	cur, err := b.compileColumnUpTo(col.Name, column, cc)
	if err != nil {
		return buffer.Ref{}, false, err
	}

	sc := buffer.ScalarInt(encoded)
	out := b.alloc.Alloc(types.U8)
	if litOnRight {
		return b.emit(ops.NewCompare(c.Kind, types.I64, cur, buffer.Ref{}, nil, &sc, out), out), true, nil
	}

	return b.emit(ops.NewCompare(c.Kind, types.I64, buffer.Ref{}, cur, &sc, nil, out), out), true, nil
}

// compileColumnUpTo reads a column and applies only the codec's
// elementwise-decodable prefix (per codec.Codec.EnsureFixedWidth),
// leaving the result in the same fixed-width encoding a pushed-down
// literal was encoded against.
func (b *Builder) compileColumnUpTo(name string, col *catalog.Column, c codec.Codec) (buffer.Ref, error) {
	splitAt := c.EnsureFixedWidth()
	secIdx := 0
	cur := b.readSection(name, col, secIdx)

	var presence buffer.Ref
	for _, op := range c.Ops[:splitAt] {
		var err error
		cur, secIdx, presence, err = b.applyCodecOp(name, col, op, cur, secIdx, presence)
		if err != nil {
			return buffer.Ref{}, err
		}
	}

	return cur, nil
}

func columnLiteralShape(left, right Expr) (col ColumnRef, lit Literal, litOnRight bool, ok bool) {
	if c, isCol := left.(ColumnRef); isCol {
		if l, isLit := right.(Literal); isLit {
			return c, l, true, true
		}
	}
	if c, isCol := right.(ColumnRef); isCol {
		if l, isLit := left.(Literal); isLit {
			return c, l, false, true
		}
	}

	return ColumnRef{}, Literal{}, false, false
}

// resolveOperands determines the comparison's driving encoding and which
// operand (if either) is a scalar, compiling literal operands to
// buffer.Scalar values directly rather than materializing a one-element
// vector.
func (b *Builder) resolveOperands(leftExpr, rightExpr Expr, left, right buffer.Ref) (types.Encoding, *buffer.Scalar, *buffer.Scalar) {
	var leftScalar, rightScalar *buffer.Scalar
	enc := types.I64

	if lit, ok := leftExpr.(Literal); ok {
		sc := scalarOf(lit)
		leftScalar = &sc
		enc = right.Encoding()
	} else if lit, ok := rightExpr.(Literal); ok {
		sc := scalarOf(lit)
		rightScalar = &sc
		enc = left.Encoding()
	} else {
		enc = left.Encoding()
	}

	return enc, leftScalar, rightScalar
}

func (b *Builder) compileArith(a Arith) (buffer.Ref, error) {
	left, err := b.Compile(a.Left)
	if err != nil {
		return buffer.Ref{}, err
	}
	right, err := b.Compile(a.Right)
	if err != nil {
		return buffer.Ref{}, err
	}

	_, leftScalar, rightScalar := b.resolveOperands(a.Left, a.Right, left, right)

	if a.Float {
		out := b.alloc.Alloc(types.F64)

		return b.emit(ops.NewFloatArithmetic(a.Kind, left, right, leftScalar, rightScalar, out), out), nil
	}

	out := b.alloc.Alloc(types.I64)

	return b.emit(ops.NewArithmetic(a.Kind, left, right, leftScalar, rightScalar, out), out), nil
}

func (b *Builder) compileBoolean(kind ops.BoolKind, leftExpr, rightExpr Expr) (buffer.Ref, error) {
	left, err := b.Compile(leftExpr)
	if err != nil {
		return buffer.Ref{}, err
	}
	right, err := b.Compile(rightExpr)
	if err != nil {
		return buffer.Ref{}, err
	}

	return b.emit(ops.NewBoolean(kind, left, right), left), nil
}

func (b *Builder) compileNot(xExpr Expr) (buffer.Ref, error) {
	x, err := b.Compile(xExpr)
	if err != nil {
		return buffer.Ref{}, err
	}
	out := b.alloc.Alloc(types.U8)

	return b.emit(ops.NewMapBooleanNot(x, out), out), nil
}

func (b *Builder) compileToYear(xExpr Expr) (buffer.Ref, error) {
	x, err := b.Compile(xExpr)
	if err != nil {
		return buffer.Ref{}, err
	}
	out := b.alloc.Alloc(types.I64)

	return b.emit(ops.NewMapToYear(x, out), out), nil
}

func (b *Builder) compileRegex(r RegexMatch) (buffer.Ref, error) {
	x, err := b.Compile(r.X)
	if err != nil {
		return buffer.Ref{}, err
	}

	pattern, err := CompileRegexPattern(r.Pattern)
	if err != nil {
		return buffer.Ref{}, err
	}

	out := b.alloc.Alloc(types.U8)

	return b.emit(ops.NewRegex(x, pattern, out), out), nil
}
