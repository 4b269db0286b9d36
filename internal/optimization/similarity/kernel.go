package similarity

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrLengthMismatch is returned when two vectors have different lengths.
var ErrLengthMismatch = errors.New("vector length mismatch")

// Kernel compares two vectors.
type Kernel interface {
	// Eval computes the similarity between x1 and x2
	Eval(x1, x2 []float64) (float64, error)
}

// CosineKernel implements cosine similarity.
type CosineKernel struct{}

// Eval computes the cosine similarity between x1 and x2
func (CosineKernel) Eval(x1, x2 []float64) (float64, error) {
	return Cosine(x1, x2)
}

// Cosine returns the cosine similarity of a and b. It is 0 when either vector
// has zero norm.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (normA * normB), nil
}
