package mozlog

// KV is an ordered, immutable attribute source. A KV is shared by every log
// call made through the logger handle it is attached to: children append via
// With, parents are never mutated, and serialization walks the chain
// root-first so attachment order is preserved. Keys are not deduplicated;
// duplicates land in the output as-is.
type KV struct {
	prev   *KV
	fields []Field
}

// NewKV starts a source from the given pairs.
func NewKV(fields ...Field) *KV {
	return &KV{fields: copyFields(nil, fields)}
}

// With returns a child source whose pairs follow kv's. The receiver may be
// nil; the result is independent of later changes to the caller's slice.
func (kv *KV) With(fields ...Field) *KV {
	return &KV{prev: kv, fields: copyFields(nil, fields)}
}

// Len reports the total number of pairs in the chain.
func (kv *KV) Len() int {
	n := 0
	for c := kv; c != nil; c = c.prev {
		n += len(c.fields)
	}
	return n
}

func (kv *KV) each(fn func(*Field) error) error {
	if kv == nil {
		return nil
	}
	if err := kv.prev.each(fn); err != nil {
		return err
	}
	for i := range kv.fields {
		if err := fn(&kv.fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func copyFields(dst, src []Field) []Field {
	if len(src) == 0 {
		return dst
	}
	return append(dst, src...)
}
