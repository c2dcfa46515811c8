// Package indicator computes auxiliary series from candle history.
// All computations are pure functions of the candles passed in.
package indicator

// Series is a sparse float series aligned to candle indices. "Not yet
// available" is a first-class state: a slot is either defined or not,
// never an implicit zero.
type Series struct {
	values  []float64
	defined []bool
}

// NewSeries creates an all-undefined series of length n.
func NewSeries(n int) Series {
	return Series{
		values:  make([]float64, n),
		defined: make([]bool, n),
	}
}

// Len returns the series length.
func (s Series) Len() int {
	return len(s.values)
}

// Set defines the value at index i. Out-of-range indices are ignored.
func (s Series) Set(i int, v float64) {
	if i < 0 || i >= len(s.values) {
		return
	}
	s.values[i] = v
	s.defined[i] = true
}

// At returns the value at index i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.values) || !s.defined[i] {
		return 0, false
	}
	return s.values[i], true
}
