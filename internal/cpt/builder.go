package cpt

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Epsilon is added to every entry by NormalizeRow so that no probability is
// ever exactly zero. Tables built from caller rows are therefore biased
// towards uniform by Epsilon/(sum+width*Epsilon) per entry.
const Epsilon = 0.001

// RandomRow returns n probabilities drawn uniformly at random and
// renormalized to sum to 1. A nil rng uses the global source.
func RandomRow(rng *rand.Rand, n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		if rng != nil {
			row[i] = rng.Float64()
		} else {
			row[i] = rand.Float64()
		}
	}
	sum := floats.Sum(row)
	if sum == 0 {
		for i := range row {
			row[i] = 1 / float64(n)
		}
		return row
	}
	floats.Scale(1/sum, row)
	return row
}

// NewRandom builds a table of the correct shape for a variable with width
// values and parents of the given domain sizes. Every leaf holds a random
// row; the values are placeholders until AssignRows overwrites them.
func NewRandom(rng *rand.Rand, width int, dims []int) (*Table, error) {
	t, err := newTable(width, dims)
	if err != nil {
		return nil, err
	}
	for leaf := 0; leaf < t.Leaves(); leaf++ {
		copy(t.probs[leaf*width:], RandomRow(rng, width))
	}
	return t, nil
}

// AssignRows overwrites the table's leaf rows, in depth-first order with the
// last parent varying fastest, with rows[cursor:cursor+Leaves()] and returns
// the cursor past the last consumed row. Rows are validated before anything
// is written, so on error the table is unchanged.
func (t *Table) AssignRows(rows [][]float64, cursor int) (int, error) {
	leaves := t.Leaves()
	if cursor < 0 || len(rows)-cursor < leaves {
		return cursor, fmt.Errorf("%w: need %d rows from position %d, have %d", ErrShapeMismatch, leaves, cursor, len(rows)-cursor)
	}
	for i := 0; i < leaves; i++ {
		row := rows[cursor+i]
		if len(row) != t.width {
			return cursor, fmt.Errorf("%w: row %d has %d entries, want %d", ErrShapeMismatch, cursor+i, len(row), t.width)
		}
		if err := checkRow(row); err != nil {
			return cursor, fmt.Errorf("row %d: %w", cursor+i, err)
		}
	}
	for i := 0; i < leaves; i++ {
		copy(t.probs[i*t.width:], rows[cursor+i])
	}
	return cursor + leaves, nil
}

// NormalizeRow returns a copy of row with Epsilon added to every entry and
// rescaled to sum to 1. Relative ordering of the entries is preserved.
func NormalizeRow(row []float64) []float64 {
	out := append([]float64(nil), row...)
	if len(out) == 0 {
		return out
	}
	floats.AddConst(Epsilon, out)
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// NormalizeRows applies NormalizeRow to every row.
func NormalizeRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = NormalizeRow(row)
	}
	return out
}

// FromRows normalizes the caller's rows and assigns them to a freshly built
// table. The number of rows must equal the product of dims exactly.
func FromRows(width int, dims []int, rows [][]float64) (*Table, error) {
	t, err := newTable(width, dims)
	if err != nil {
		return nil, err
	}
	if len(rows) != t.Leaves() {
		return nil, fmt.Errorf("%w: got %d rows, want %d", ErrShapeMismatch, len(rows), t.Leaves())
	}
	for i, row := range rows {
		if err := checkRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	if _, err := t.AssignRows(NormalizeRows(rows), 0); err != nil {
		return nil, err
	}
	return t, nil
}
