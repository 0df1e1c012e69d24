package cpt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON encodes the table as nested arrays: one array level per parent,
// outermost first, with the probability rows at the leaves. A table without
// parents encodes as a flat row.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	t.writeNested(&buf, 0, 0)
	return buf.Bytes(), nil
}

func (t *Table) writeNested(buf *bytes.Buffer, depth, off int) {
	buf.WriteByte('[')
	if depth == len(t.dims) {
		for i, p := range t.probs[off : off+t.width] {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.FormatFloat(p, 'g', -1, 64))
		}
	} else {
		step := t.stride(depth)
		for i := 0; i < t.dims[depth]; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			t.writeNested(buf, depth+1, off+i*step)
		}
	}
	buf.WriteByte(']')
}

// UnmarshalJSON decodes nested arrays produced by MarshalJSON. The shape is
// inferred from the input; ragged levels are rejected with ErrShapeMismatch.
// The decoded table is validated.
func (t *Table) UnmarshalJSON(data []byte) error {
	var dims []int
	var leaves [][]float64
	width := -1

	var walk func(raw json.RawMessage, depth int) error
	walk = func(raw json.RawMessage, depth int) error {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%w: level %d is not an array", ErrShapeMismatch, depth)
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: empty array at level %d", ErrEmptyDomain, depth)
		}
		first := bytes.TrimSpace(items[0])
		if len(first) > 0 && first[0] == '[' {
			if depth == len(dims) {
				if len(leaves) > 0 {
					return fmt.Errorf("%w: nested array below leaf depth %d", ErrShapeMismatch, depth)
				}
				dims = append(dims, len(items))
			} else if dims[depth] != len(items) {
				return fmt.Errorf("%w: level %d has %d entries, want %d", ErrShapeMismatch, depth, len(items), dims[depth])
			}
			for _, item := range items {
				if err := walk(item, depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		if len(dims) != depth {
			return fmt.Errorf("%w: leaf row at depth %d, want %d", ErrShapeMismatch, depth, len(dims))
		}
		var row []float64
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("%w: leaf row at depth %d: %v", ErrShapeMismatch, depth, err)
		}
		if width == -1 {
			width = len(row)
		} else if len(row) != width {
			return fmt.Errorf("%w: leaf row has %d entries, want %d", ErrShapeMismatch, len(row), width)
		}
		leaves = append(leaves, row)
		return nil
	}
	if err := walk(data, 0); err != nil {
		return err
	}

	decoded, err := newTable(width, dims)
	if err != nil {
		return err
	}
	if len(leaves) != decoded.Leaves() {
		return fmt.Errorf("%w: got %d leaf rows, want %d", ErrShapeMismatch, len(leaves), decoded.Leaves())
	}
	if _, err := decoded.AssignRows(leaves, 0); err != nil {
		return err
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*t = *decoded
	return nil
}
