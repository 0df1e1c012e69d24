package cpt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tolerance is the allowed deviation of a row sum from 1.
const Tolerance = 1e-9

// Table is a conditional probability table for one variable.
type Table struct {
	// width is the size of the variable's domain.
	width int
	// dims holds the domain size of each parent, outermost first.
	dims []int
	// probs holds Leaves()*width entries, one row per leaf.
	probs []float64
}

// newTable allocates a zeroed table of the given shape.
func newTable(width int, dims []int) (*Table, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: variable has %d values", ErrEmptyDomain, width)
	}
	leaves := 1
	for i, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("%w: parent %d has %d values", ErrEmptyDomain, i, d)
		}
		leaves *= d
	}
	return &Table{
		width: width,
		dims:  append([]int(nil), dims...),
		probs: make([]float64, leaves*width),
	}, nil
}

// Width returns the number of values of the variable the table describes.
func (t *Table) Width() int {
	return t.width
}

// Dims returns the domain sizes of the parents, outermost first.
func (t *Table) Dims() []int {
	return append([]int(nil), t.dims...)
}

// Leaves returns the number of leaf rows, the product of all parent domain sizes.
func (t *Table) Leaves() int {
	if t.width == 0 {
		return 0
	}
	return len(t.probs) / t.width
}

// Matches reports whether the table has the given domain width and parent
// dimensions.
func (t *Table) Matches(width int, dims []int) bool {
	if t == nil || t.width != width || len(t.dims) != len(dims) {
		return false
	}
	for i := range dims {
		if t.dims[i] != dims[i] {
			return false
		}
	}
	return true
}

// Offset returns the index of the first entry of the leaf row selected by
// the given parent value indices.
func (t *Table) Offset(parentValues []int) int {
	if len(parentValues) != len(t.dims) {
		panic(fmt.Sprintf("cpt: %d parent values for a table with %d parents", len(parentValues), len(t.dims)))
	}
	leaf := 0
	for i, v := range parentValues {
		if v < 0 || v >= t.dims[i] {
			panic(fmt.Sprintf("cpt: value index %d out of range for parent %d of size %d", v, i, t.dims[i]))
		}
		leaf = leaf*t.dims[i] + v
	}
	return leaf * t.width
}

// Row returns the leaf row for the given parent value indices. The returned
// slice aliases the table and must not be modified.
func (t *Table) Row(parentValues ...int) []float64 {
	off := t.Offset(parentValues)
	return t.probs[off : off+t.width : off+t.width]
}

// Prob returns P(value | parentValues).
func (t *Table) Prob(value int, parentValues ...int) float64 {
	return t.Row(parentValues...)[value]
}

// Rows returns a copy of every leaf row in depth-first order.
func (t *Table) Rows() [][]float64 {
	rows := make([][]float64, t.Leaves())
	for i := range rows {
		rows[i] = append([]float64(nil), t.probs[i*t.width:(i+1)*t.width]...)
	}
	return rows
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	return &Table{
		width: t.width,
		dims:  append([]int(nil), t.dims...),
		probs: append([]float64(nil), t.probs...),
	}
}

// Validate checks that every entry is a finite non-negative number and that
// every leaf row sums to 1 within Tolerance.
func (t *Table) Validate() error {
	for leaf := 0; leaf < t.Leaves(); leaf++ {
		row := t.probs[leaf*t.width : (leaf+1)*t.width]
		if err := checkRow(row); err != nil {
			return fmt.Errorf("leaf %d: %w", leaf, err)
		}
		if sum := floats.Sum(row); math.Abs(sum-1) > Tolerance {
			return fmt.Errorf("%w: leaf %d sums to %g", ErrInvalidProbability, leaf, sum)
		}
	}
	return nil
}

// stride is the number of entries spanned by one index step at depth.
func (t *Table) stride(depth int) int {
	s := t.width
	for _, d := range t.dims[depth+1:] {
		s *= d
	}
	return s
}

func checkRow(row []float64) error {
	for i, p := range row {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("%w: entry %d is %g", ErrInvalidProbability, i, p)
		}
	}
	return nil
}
