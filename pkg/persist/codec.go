package persist

import (
	"sort"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/pkg/errors"
)

// writer appends MUS-encoded primitives to a growing buffer.
type writer struct {
	buf []byte
}

func (w *writer) Int(v int) {
	bs := make([]byte, varint.Int.Size(v))
	varint.Int.Marshal(v, bs)
	w.buf = append(w.buf, bs...)
}

func (w *writer) String(v string) {
	bs := make([]byte, ord.String.Size(v))
	ord.String.Marshal(v, bs)
	w.buf = append(w.buf, bs...)
}

func (w *writer) Bool(v bool) {
	bs := make([]byte, ord.Bool.Size(v))
	ord.Bool.Marshal(v, bs)
	w.buf = append(w.buf, bs...)
}

func (w *writer) Float(v float64) {
	bs := make([]byte, raw.Float64.Size(v))
	raw.Float64.Marshal(v, bs)
	w.buf = append(w.buf, bs...)
}

func (w *writer) Bytes(v []byte) {
	w.Int(len(v))
	w.buf = append(w.buf, v...)
}

func (w *writer) Strings(v []string) {
	w.Int(len(v))
	for _, s := range v {
		w.String(s)
	}
}

func (w *writer) Floats(v []float64) {
	w.Int(len(v))
	for _, f := range v {
		w.Float(f)
	}
}

func (w *writer) FloatMatrix(v [][]float64) {
	w.Int(len(v))
	for _, row := range v {
		w.Floats(row)
	}
}

func (w *writer) StringFloatMap(v map[string]float64) {
	keys := sortedKeys(v)
	w.Strings(keys)
	for _, k := range keys {
		w.Float(v[k])
	}
}

func (w *writer) StringStringMap(v map[string]string) {
	keys := sortedKeys(v)
	w.Strings(keys)
	for _, k := range keys {
		w.String(v[k])
	}
}

// reader consumes MUS-encoded primitives from a buffer. The first
// decoding error sticks, so call sites check err once at the end.
type reader struct {
	bs  []byte
	off int
	err error
}

func (r *reader) Int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.off:])
	if err != nil {
		r.err = err

		return 0
	}
	r.off += n

	return v
}

func (r *reader) String() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.off:])
	if err != nil {
		r.err = err

		return ""
	}
	r.off += n

	return v
}

func (r *reader) Bool() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.bs[r.off:])
	if err != nil {
		r.err = err

		return false
	}
	r.off += n

	return v
}

func (r *reader) Float() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(r.bs[r.off:])
	if err != nil {
		r.err = err

		return 0
	}
	r.off += n

	return v
}

func (r *reader) Bytes() []byte {
	n := r.Int()
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.bs) {
		r.err = errors.Wrap(ErrCorrupt, "byte block out of bounds")

		return nil
	}
	v := make([]byte, n)
	copy(v, r.bs[r.off:r.off+n])
	r.off += n

	return v
}

// count reads a collection length and rejects any value the remaining
// bytes could not possibly hold (every element takes at least one byte),
// so a corrupt snapshot fails instead of forcing a huge allocation.
func (r *reader) count() int {
	n := r.Int()
	if r.err != nil {
		return 0
	}
	if n < 0 || n > len(r.bs)-r.off {
		r.err = errors.Wrapf(ErrCorrupt, "collection length %d out of bounds", n)

		return 0
	}

	return n
}

func (r *reader) Strings() []string {
	n := r.count()
	if r.err != nil {
		return nil
	}
	v := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v = append(v, r.String())
	}

	return v
}

func (r *reader) Floats() []float64 {
	n := r.count()
	if r.err != nil {
		return nil
	}
	v := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v = append(v, r.Float())
	}

	return v
}

func (r *reader) FloatMatrix() [][]float64 {
	n := r.count()
	if r.err != nil {
		return nil
	}
	v := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		v = append(v, r.Floats())
	}

	return v
}

func (r *reader) StringFloatMap() map[string]float64 {
	keys := r.Strings()
	v := make(map[string]float64, len(keys))
	for _, k := range keys {
		v[k] = r.Float()
	}

	return v
}

func (r *reader) StringStringMap() map[string]string {
	keys := r.Strings()
	v := make(map[string]string, len(keys))
	for _, k := range keys {
		v[k] = r.String()
	}

	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
