// Package witgen implements the witness generator / VM processor: given an
// Analyzed program, precomputed fixed columns, and an optional external
// query callback, it builds the witness column values row by row (spec.md
// §4.2).
package witgen

import (
	"fmt"
	"sort"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
)

// CellState is the three-way state of a witness cell (spec.md §3 "Row").
type CellState int

const (
	Unknown CellState = iota
	RangeConstrained
	Known
)

// CellValue is one witness cell's current state. Cells are monotonic:
// Unknown -> RangeConstrained -> Known, and a Known cell never changes
// unless input rollback explicitly resets it (spec.md §5 "Ordering").
type CellValue struct {
	State      CellState
	Value      field.Element
	Constraint RangeConstraint
}

// Render formats the cell for diagnostics.
func (c CellValue) Render() string {
	switch c.State {
	case Known:
		return c.Value.String()
	case RangeConstrained:
		return "<range-constrained>"
	default:
		return "?"
	}
}

// Row is the per-row cell state for every witness polynomial id in a
// machine's scope (spec.md §3).
type Row struct {
	scope []analyzed.PolyID
	cells map[analyzed.PolyID]*CellValue
}

// NewRow allocates a fresh, fully-unknown row over scope.
func NewRow(scope []analyzed.PolyID) *Row {
	cells := make(map[analyzed.PolyID]*CellValue, len(scope))
	for _, id := range scope {
		cells[id] = &CellValue{State: Unknown}
	}
	return &Row{scope: scope, cells: cells}
}

// Get returns the current state of a cell. A poly id outside the row's
// scope is reported as Unknown rather than panicking, since outer-query
// plumbing may probe ids that belong to a different machine.
func (r *Row) Get(id analyzed.PolyID) CellValue {
	if c, ok := r.cells[id]; ok {
		return *c
	}
	return CellValue{State: Unknown}
}

// SetKnown commits a concrete value. Returns true iff this changed the
// cell's state (i.e. it was not already Known to this same value).
func (r *Row) SetKnown(id analyzed.PolyID, v field.Element) bool {
	c, ok := r.cells[id]
	if !ok {
		c = &CellValue{}
		r.cells[id] = c
	}
	if c.State == Known && c.Value.Equal(v) {
		return false
	}
	c.State = Known
	c.Value = v
	return true
}

// SetRangeConstraint narrows a cell's allowed-value set by intersection.
// Returns true iff the cell's state changed (widening from Unknown, or a
// stricter intersection than before). Never overwrites a Known cell.
func (r *Row) SetRangeConstraint(id analyzed.PolyID, constraint RangeConstraint) bool {
	c, ok := r.cells[id]
	if !ok {
		c = &CellValue{}
		r.cells[id] = c
	}
	if c.State == Known {
		return false
	}
	combined := constraint
	if c.State == RangeConstrained {
		combined = Intersect(c.Constraint, constraint)
		if combined.Equal(c.Constraint) {
			return false
		}
	}
	c.State = RangeConstrained
	c.Constraint = combined
	return true
}

// Reset clears a cell back to Unknown, used by the input-rollback mechanism
// in spec.md §4.2 step 3.
func (r *Row) Reset(id analyzed.PolyID) {
	r.cells[id] = &CellValue{State: Unknown}
}

// Equal reports whether two rows hold identical cell state, used by loop
// detection (spec.md §4.2 step 2: "row[r-i-p] == row[r-i]").
func (r *Row) Equal(other *Row) bool {
	if len(r.cells) != len(other.cells) {
		return false
	}
	for id, c := range r.cells {
		oc, ok := other.cells[id]
		if !ok || c.State != oc.State {
			return false
		}
		switch c.State {
		case Known:
			if !c.Value.Equal(oc.Value) {
				return false
			}
		case RangeConstrained:
			if !c.Constraint.Equal(oc.Constraint) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy, used when a loop-proposed row must be able to
// be discarded without mutating the original (spec.md §4.2 step 3).
func (r *Row) Clone() *Row {
	cells := make(map[analyzed.PolyID]*CellValue, len(r.cells))
	for id, c := range r.cells {
		cp := *c
		cells[id] = &cp
	}
	return &Row{scope: r.scope, cells: cells}
}

// Render produces a human-readable dump of every cell for failure
// diagnostics (spec.md §4.2: "panic with diagnostics (row rendering +
// failing identities)").
func (r *Row) Render() string {
	ids := make([]analyzed.PolyID, 0, len(r.scope))
	ids = append(ids, r.scope...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s_%d=%s", id.SubKind, id.ID, r.Get(id).Render())
	}
	return out
}

// FinalizableData is the row arena a VmProcessor drives: push-only
// append, random-access reads, pairwise mutable access to adjacent rows,
// and a Finalize operation that compacts a row range once no further
// updates are possible (spec.md §3, §5 "Memory").
type FinalizableData struct {
	scope         []analyzed.PolyID
	rows          []*Row
	finalized     []*Row // compacted rows kept read-only; never mutated again
	finalizeStart int    // first row index that is still mutable
}

// NewFinalizableData allocates an empty arena over scope.
func NewFinalizableData(scope []analyzed.PolyID) *FinalizableData {
	return &FinalizableData{scope: scope}
}

// Push appends a new row.
func (d *FinalizableData) Push(r *Row) {
	d.rows = append(d.rows, r)
}

// Len returns the total number of rows pushed so far (finalized + mutable).
func (d *FinalizableData) Len() int {
	return len(d.finalized) + len(d.rows)
}

// Get returns the row at absolute index i.
func (d *FinalizableData) Get(i int) *Row {
	if i < len(d.finalized) {
		return d.finalized[i]
	}
	return d.rows[i-len(d.finalized)]
}

// MutableRowPair returns disjoint mutable views on rows r and r+1. Both are
// ordinary pointers into the arena: since each Row is a distinct heap
// object, mutating one can never alias the other the way two slice-index
// views into a single backing array could (spec.md DESIGN NOTES: "yields
// disjoint mutable views on adjacent rows, avoiding aliasing").
func (d *FinalizableData) MutableRowPair(r int) (*Row, *Row) {
	return d.Get(r), d.Get(r + 1)
}

// EnsureHasNextRow appends a fresh Unknown row if row r+1 does not exist
// yet (spec.md §4.2 step 4 "ensure the buffer has a next row").
func (d *FinalizableData) EnsureHasNextRow(r int) {
	for d.Len() <= r+1 {
		d.Push(NewRow(d.scope))
	}
}

// Finalize compacts rows [from, to) into the read-only finalized prefix,
// freeing the mutable slice's backing storage for that range (spec.md §5
// "Memory"). Rows outside [from, to) are untouched. from must equal
// len(d.finalized) (i.e. finalization is always of a contiguous prefix
// extension) and to must not exceed the current mutable boundary.
func (d *FinalizableData) Finalize(from, to int) {
	if from != len(d.finalized) || to <= from || to > d.Len() {
		return
	}
	count := to - from
	d.finalized = append(d.finalized, d.rows[:count]...)
	d.rows = d.rows[count:]
}

// Truncate drops every row from index i onward. The VM processor does not
// call it: a rejected looping proposal is never committed, so there is no
// tail to discard.
func (d *FinalizableData) Truncate(i int) {
	if i < len(d.finalized) {
		d.finalized = d.finalized[:i]
		d.rows = nil
		return
	}
	d.rows = d.rows[:i-len(d.finalized)]
}
