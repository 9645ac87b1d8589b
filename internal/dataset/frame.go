// Package dataset defines the five generated tables and the uniform view
// persistence collaborators consume them through.
package dataset

// Record is a row that can flatten itself in column order.
type Record interface {
	Values() []any
}

// Table is the read-only view handed to persistence. A Table is always fully
// materialized.
type Table interface {
	Name() string
	Columns() []string
	Len() int
	Values(i int) []any
}

// Frame is an in-memory table of homogeneous rows.
type Frame[T Record] struct {
	name    string
	columns []string
	Rows    []T
}

// NewFrame wraps rows under a table name.
func NewFrame[T Record](name string, columns []string, rows []T) *Frame[T] {
	return &Frame[T]{name: name, columns: columns, Rows: rows}
}

// Name implements Table.
func (f *Frame[T]) Name() string { return f.name }

// Columns implements Table.
func (f *Frame[T]) Columns() []string { return f.columns }

// Len implements Table.
func (f *Frame[T]) Len() int { return len(f.Rows) }

// Values implements Table.
func (f *Frame[T]) Values(i int) []any { return f.Rows[i].Values() }

// Slice returns rows [lo, hi).
func (f *Frame[T]) Slice(lo, hi int) []T { return f.Rows[lo:hi] }

// Tables bundles one run's output.
type Tables struct {
	FactorVectors *Frame[FactorVector]
	Positions     *Frame[Position]
	Orders        *Frame[Order]
	PolicyChanges *Frame[PolicyChange]
	Breaches      *Frame[Breach]
}

// All returns the tables in hand-off order, skipping ones not generated.
func (t *Tables) All() []Table {
	out := make([]Table, 0, 5)
	if t.FactorVectors != nil {
		out = append(out, t.FactorVectors)
	}
	if t.Positions != nil {
		out = append(out, t.Positions)
	}
	if t.Orders != nil {
		out = append(out, t.Orders)
	}
	if t.PolicyChanges != nil {
		out = append(out, t.PolicyChanges)
	}
	if t.Breaches != nil {
		out = append(out, t.Breaches)
	}
	return out
}

var (
	_ Table = (*Frame[FactorVector])(nil)
	_ Table = (*Frame[Position])(nil)
	_ Table = (*Frame[Order])(nil)
	_ Table = (*Frame[PolicyChange])(nil)
	_ Table = (*Frame[Breach])(nil)
)
