// Package dataset loads the aggregate per-country, per-year tables the
// allocator consumes. Cells holding the sentinel -2147483648, blanks and
// non-numeric values are treated as missing, never as zero.
package dataset
