package model

import "math"

// SparseVector holds the non-zero entries of a feature vector of length Dim.
// Indices are strictly increasing.
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Dot multiplies the vector with a dense row of the same dimension.
func (s SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range s.Indices {
		sum += s.Values[i] * dense[idx]
	}
	return sum
}

// NNZ is the number of stored entries.
func (s SparseVector) NNZ() int {
	return len(s.Indices)
}

func (s *SparseVector) normalize(kind string) {
	var n float64
	switch kind {
	case "l1":
		for _, v := range s.Values {
			n += math.Abs(v)
		}
	case "l2":
		for _, v := range s.Values {
			n += v * v
		}
		n = math.Sqrt(n)
	default:
		return
	}
	if n == 0 {
		return
	}
	for i := range s.Values {
		s.Values[i] /= n
	}
}
