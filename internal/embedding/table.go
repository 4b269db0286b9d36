// Package embedding builds and caches restaurant description vectors.
package embedding

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch is returned when vectors of one table differ in length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Table maps restaurant ids to vectors of one dimensionality. It is immutable
// once built; a nil *Table is a valid empty table.
type Table struct {
	vectors map[int][]float64
	dim     int
}

// NewTable copies vectors into a table. Every vector must have the same length.
func NewTable(vectors map[int][]float64) (*Table, error) {
	t := &Table{vectors: make(map[int][]float64, len(vectors))}
	for id, v := range vectors {
		if len(t.vectors) == 0 {
			t.dim = len(v)
		} else if len(v) != t.dim {
			return nil, fmt.Errorf("%w: restaurant %d has %d values, want %d", ErrDimensionMismatch, id, len(v), t.dim)
		}
		t.vectors[id] = append([]float64(nil), v...)
	}
	return t, nil
}

// Len returns the number of vectors.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.vectors)
}

// Dimension returns the shared vector length, or 0 for an empty table.
func (t *Table) Dimension() int {
	if t == nil {
		return 0
	}
	return t.dim
}

// Vector returns the vector for id. The slice must not be modified.
func (t *Table) Vector(id int) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.vectors[id]
	return v, ok
}

// IDs returns the ids in the table in ascending order.
func (t *Table) IDs() []int {
	if t == nil {
		return nil
	}
	ids := make([]int, 0, len(t.vectors))
	for id := range t.vectors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
