package row

import (
	"strings"

	"github.com/adarshpannu/flare/ids"
)

// Row is a fixed-width register tuple, addressed by ids.RegisterId. Width is
// determined at compile time by a stage's register allocator (spec §3) and
// never changes after construction; cloning a Row is a cheap slice copy
// since Datum stores strings by pointer.
type Row struct {
	cols []Datum
}

// NewRow allocates a row of the given width, every register initialized to
// NULL.
func NewRow(width int) Row {
	cols := make([]Datum, width)
	for i := range cols {
		cols[i] = Null()
	}
	return Row{cols: cols}
}

// RowOf builds a row directly from datums, in register order. Used by tests
// and by code that builds a row positionally (exec.Next's emit-column
// projection, Repartition's output fields and key encoding).
func RowOf(datums ...Datum) Row {
	return Row{cols: datums}
}

func (r Row) Width() int { return len(r.cols) }

func (r Row) GetColumn(reg ids.RegisterId) Datum {
	return r.cols[int(reg)]
}

func (r *Row) SetColumn(reg ids.RegisterId, d Datum) {
	r.cols[int(reg)] = d
}

// Clone returns an independent copy of r; mutating the clone never affects
// the original (Eval's purity contract, spec §4.2, relies on this when a
// caller needs to stash a row across iterations, e.g. the HashJoin build
// side).
func (r Row) Clone() Row {
	cols := make([]Datum, len(r.cols))
	copy(cols, r.cols)
	return Row{cols: cols}
}

// GroupEqual reports whether two rows of equal width are equal
// register-by-register under Datum.GroupEqual (spec §4.5.5).
func (r Row) GroupEqual(other Row) bool {
	if len(r.cols) != len(other.cols) {
		return false
	}
	for i := range r.cols {
		if !r.cols[i].GroupEqual(other.cols[i]) {
			return false
		}
	}
	return true
}

// EncodeFields renders the row as the shuffle-file textual record described
// in spec §6: one field per register, separated by sep, newline-terminated
// by the caller.
func (r Row) EncodeFields(sep byte) string {
	var b strings.Builder
	for i, d := range r.cols {
		if i > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(d.String())
	}
	return b.String()
}
