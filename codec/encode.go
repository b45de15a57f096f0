package codec

import "sort"

// EncodeInt is the inverse of Add/ToI64: given the codec's leading
// Add/ToI64 ops, map a literal in decoded space back to encoded space so
// that comparisons against constants can happen without decoding the
// column. It returns ok=false if the codec does more than an additive
// offset (e.g. Delta, LZ4, dictionary) before the literal's comparison
// point, in which case the caller must decode the column instead.
func (c Codec) EncodeInt(literal int64) (encoded int64, ok bool) {
	encoded = literal
	for _, op := range c.Ops {
		switch o := op.(type) {
		case Add:
			encoded -= o.K
		case ToI64:
			// width extension is the identity in integer space
		case PushDataSection:
			// no-op for the integer value itself
		default:
			return 0, false
		}
	}

	return encoded, true
}

// DictEntry is one (offset, length) pair into a dictionary's string heap.
type DictEntry struct {
	Offset uint64
	Length uint32
}

// EncodeStr is the inverse of a dictionary lookup: binary-search the sorted
// offset/length table over the string heap for literal, returning its
// integer code. If literal is not present in the dictionary, ok is false —
// queries comparing to such a sentinel are statically known false, so
// the caller should short-circuit rather than emit a comparison.
//
// entries must be sorted by the string value each (offset, length) pair
// denotes in heap (dictionaries are built in sorted order so DictLookup's
// output is usable for order-preserving comparisons).
func EncodeStr(entries []DictEntry, heap []byte, literal string) (code int64, ok bool) {
	n := len(entries)
	i := sort.Search(n, func(i int) bool {
		e := entries[i]
		return string(heap[e.Offset:e.Offset+uint64(e.Length)]) >= literal
	})

	if i >= n {
		return 0, false
	}

	e := entries[i]
	if string(heap[e.Offset:e.Offset+uint64(e.Length)]) != literal {
		return 0, false
	}

	return int64(i), true
}
