// Package types defines the closed enumerations that describe the physical
// and logical shape of data flowing through the execution core: the
// Encoding of a scratchpad buffer, and the user-facing Basic type of a
// column.
package types

// Encoding names the physical layout of a scratchpad buffer. It is a closed
// enumeration; new variants require updating String, IsNullable,
// IsScalar, NonNullable, and Nullable.
type Encoding uint8

const (
	// Unspecified is the zero value and is never a valid buffer tag.
	Unspecified Encoding = iota

	U8
	U16
	U32
	U64
	I64
	F64

	// Str is a borrowed string vector (decoded dictionary output, etc).
	Str
	// ByteVec is a byte-oriented bit-vector, used for boolean masks.
	ByteVec
	// Val is a heterogeneous tagged union of int/float/str/null.
	Val
	// ByteSlices is fixed-stride packed byte-slice rows (composite grouping keys).
	ByteSlices
	// GroupKey is the dense u32 group-id vector the grouping operators produce.
	GroupKey
	// MergeOp is the per-operator MergeOp/Premerge control type.
	MergeOp

	// Scalar variants: a single-valued buffer used for constants.
	ScalarI64
	ScalarStr
	ScalarF64

	// Null is the sentinel representing an all-null run of known length.
	Null

	// Nullable overlays: data buffer of the base type plus a presence bitset.
	NullableU8
	NullableU16
	NullableU32
	NullableU64
	NullableI64
	NullableF64
	NullableStr
)

// String implements fmt.Stringer.
func (e Encoding) String() string {
	switch e {
	case U8:
		return "U8"
	case U16:
		return "U16"
	case U32:
		return "U32"
	case U64:
		return "U64"
	case I64:
		return "I64"
	case F64:
		return "F64"
	case Str:
		return "Str"
	case ByteVec:
		return "ByteVec"
	case Val:
		return "Val"
	case ByteSlices:
		return "ByteSlices"
	case GroupKey:
		return "GroupKey"
	case MergeOp:
		return "MergeOp"
	case ScalarI64:
		return "ScalarI64"
	case ScalarStr:
		return "ScalarStr"
	case ScalarF64:
		return "ScalarF64"
	case Null:
		return "Null"
	case NullableU8:
		return "NullableU8"
	case NullableU16:
		return "NullableU16"
	case NullableU32:
		return "NullableU32"
	case NullableU64:
		return "NullableU64"
	case NullableI64:
		return "NullableI64"
	case NullableF64:
		return "NullableF64"
	case NullableStr:
		return "NullableStr"
	default:
		return "Unspecified"
	}
}

// IsNullable reports whether e is one of the nullable overlay variants.
func (e Encoding) IsNullable() bool {
	switch e {
	case NullableU8, NullableU16, NullableU32, NullableU64, NullableI64, NullableF64, NullableStr:
		return true
	default:
		return false
	}
}

// IsScalar reports whether e carries a single value rather than a vector.
func (e Encoding) IsScalar() bool {
	switch e {
	case ScalarI64, ScalarStr, ScalarF64:
		return true
	default:
		return false
	}
}

// NonNullable returns the non-nullable base encoding carried by a nullable
// overlay. It is the identity for already non-nullable encodings.
func (e Encoding) NonNullable() Encoding {
	switch e {
	case NullableU8:
		return U8
	case NullableU16:
		return U16
	case NullableU32:
		return U32
	case NullableU64:
		return U64
	case NullableI64:
		return I64
	case NullableF64:
		return F64
	case NullableStr:
		return Str
	default:
		return e
	}
}

// Nullable returns the nullable overlay encoding for a base encoding. It
// panics-free fallback: encodings with no nullable overlay (Val, ByteVec,
// ByteSlices, GroupKey, MergeOp, scalars, Null) return themselves unchanged.
func (e Encoding) Nullable() Encoding {
	switch e {
	case U8:
		return NullableU8
	case U16:
		return NullableU16
	case U32:
		return NullableU32
	case U64:
		return NullableU64
	case I64:
		return NullableI64
	case F64:
		return NullableF64
	case Str:
		return NullableStr
	default:
		return e
	}
}

// Basic is the logical, user-facing type of a column or expression result.
// The map from Basic to Encoding is not unique: a Basic Integer may be
// carried by any integer width after encoding.
type Basic uint8

const (
	BasicUnspecified Basic = iota
	BasicInteger
	BasicFloat
	BasicString
	BasicBoolean
	BasicVal
	BasicNull
	BasicNullableInteger
	BasicNullableFloat
	BasicNullableString
)

func (b Basic) String() string {
	switch b {
	case BasicInteger:
		return "Integer"
	case BasicFloat:
		return "Float"
	case BasicString:
		return "String"
	case BasicBoolean:
		return "Boolean"
	case BasicVal:
		return "Val"
	case BasicNull:
		return "Null"
	case BasicNullableInteger:
		return "NullableInteger"
	case BasicNullableFloat:
		return "NullableFloat"
	case BasicNullableString:
		return "NullableString"
	default:
		return "Unspecified"
	}
}

// IsNullable reports whether b is one of the nullable basic variants.
func (b Basic) IsNullable() bool {
	switch b {
	case BasicNullableInteger, BasicNullableFloat, BasicNullableString:
		return true
	default:
		return false
	}
}

// NonNullable strips the nullable qualifier from b.
func (b Basic) NonNullable() Basic {
	switch b {
	case BasicNullableInteger:
		return BasicInteger
	case BasicNullableFloat:
		return BasicFloat
	case BasicNullableString:
		return BasicString
	default:
		return b
	}
}
