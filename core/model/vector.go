package model

import "sort"

// Vector maps a country name to its quantity for a single year. It is used for
// both the supply (exports) and the demand (imports) side.
type Vector map[string]int64

// Total returns the sum of all entries.
func (v Vector) Total() int64 {
	var sum int64
	for _, q := range v {
		sum += q
	}
	return sum
}

// Names returns the country names in lexical order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v))
	for n := range v {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Positive returns a copy holding only strictly positive entries.
func (v Vector) Positive() Vector {
	out := make(Vector, len(v))
	for n, q := range v {
		if q > 0 {
			out[n] = q
		}
	}
	return out
}

// Clone returns a shallow copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for n, q := range v {
		out[n] = q
	}
	return out
}
