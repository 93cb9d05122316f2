package store

import (
	"errors"
	"strconv"
)

// ErrNotInteger and ErrNotFloat mirror spec.md §4.3.2's HINCRBY/HINCRBYFLOAT
// failure contracts.
var (
	ErrNotInteger = errors.New("value is not an integer")
	ErrNotFloat   = errors.New("value is not a valid float")
)

// NewHash constructs an empty hash payload.
func NewHash() *Hash { return &Hash{fields: make(map[string]hashValue)} }

// Len returns the field count.
func (h *Hash) Len() int { return len(h.fields) }

// SetBytes inserts or replaces field with a bytes value, reporting whether
// the field was newly created.
func (h *Hash) SetBytes(field string, v []byte) bool {
	_, existed := h.fields[field]
	h.fields[field] = hashValue{tag: TagBytes, bytes: v}
	return !existed
}

// Get returns field's value rendered as bytes (numeric fields are formatted
// the way HGET must: exactly as SET/HINCRBY would have stored the string),
// and whether it exists.
func (h *Hash) Get(field string) ([]byte, bool) {
	v, ok := h.fields[field]
	if !ok {
		return nil, false
	}
	return v.render(), true
}

func (v hashValue) render() []byte {
	switch v.tag {
	case TagInt:
		return []byte(strconv.FormatInt(v.i, 10))
	case TagFloat:
		return []byte(strconv.FormatFloat(v.f, 'f', -1, 64))
	default:
		return v.bytes
	}
}

// Exists reports field membership.
func (h *Hash) Exists(field string) bool {
	_, ok := h.fields[field]
	return ok
}

// Delete removes field, reporting whether it existed.
func (h *Hash) Delete(field string) bool {
	_, ok := h.fields[field]
	delete(h.fields, field)
	return ok
}

// DeleteMany removes every listed field and returns how many existed.
func (h *Hash) DeleteMany(fields []string) int {
	var n int
	for _, f := range fields {
		if h.Delete(f) {
			n++
		}
	}
	return n
}

// GetMany resolves each field, returning nil entries for missing ones (the
// positional-nils contract HMGET needs).
func (h *Hash) GetMany(fields []string) [][]byte {
	out := make([][]byte, len(fields))
	for i, f := range fields {
		if v, ok := h.Get(f); ok {
			out[i] = v
		}
	}
	return out
}

// Fields returns every field name.
func (h *Hash) Fields() []string {
	out := make([]string, 0, len(h.fields))
	for f := range h.fields {
		out = append(out, f)
	}
	return out
}

// Values returns every rendered value.
func (h *Hash) Values() [][]byte {
	out := make([][]byte, 0, len(h.fields))
	for _, v := range h.fields {
		out = append(out, v.render())
	}
	return out
}

// All returns every (field, rendered value) pair, interleaved as
// field0, value0, field1, value1, ... the shape HGETALL replies in.
func (h *Hash) All() [][]byte {
	out := make([][]byte, 0, len(h.fields)*2)
	for f, v := range h.fields {
		out = append(out, []byte(f), v.render())
	}
	return out
}

// StrLen returns the byte length of field's rendered value, or 0 if absent.
func (h *Hash) StrLen(field string) int {
	v, ok := h.Get(field)
	if !ok {
		return 0
	}
	return len(v)
}

// IncrBy adds delta to field's integer value, creating it at 0 if absent,
// and returns the new value. Fails with ErrNotInteger if the existing value
// cannot be parsed as an integer.
func (h *Hash) IncrBy(field string, delta int64) (int64, error) {
	cur, ok := h.fields[field]
	var base int64
	if ok {
		switch cur.tag {
		case TagInt:
			base = cur.i
		case TagBytes:
			n, err := strconv.ParseInt(string(cur.bytes), 10, 64)
			if err != nil {
				return 0, ErrNotInteger
			}
			base = n
		default:
			return 0, ErrNotInteger
		}
	}
	next := base + delta
	h.fields[field] = hashValue{tag: TagInt, i: next}
	return next, nil
}

// IncrByFloat adds delta to field's float value, creating it at 0 if absent.
func (h *Hash) IncrByFloat(field string, delta float64) (float64, error) {
	cur, ok := h.fields[field]
	var base float64
	if ok {
		switch cur.tag {
		case TagFloat:
			base = cur.f
		case TagInt:
			base = float64(cur.i)
		case TagBytes:
			f, err := strconv.ParseFloat(string(cur.bytes), 64)
			if err != nil {
				return 0, ErrNotFloat
			}
			base = f
		}
	}
	next := base + delta
	h.fields[field] = hashValue{tag: TagFloat, f: next}
	return next, nil
}
