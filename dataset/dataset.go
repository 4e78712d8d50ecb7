// Package dataset generates reproducible synthetic tables for load benchmarks.
package dataset

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// Scale multiplies generated values before they are truncated to integers.
const Scale = 100_000

// DefaultSeed seeds Generate unless WithSeed is given.
const DefaultSeed uint64 = 42

// Type is the kind of a generated column.
type Type int

// Column types, in the order their blocks appear in a generated table.
const (
	Float Type = iota
	Int
	Datetime
	String
	Char
)

// Types lists column types in block order.
var Types = []Type{Float, Int, Datetime, String, Char}

func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "scaled-int"
	case Datetime:
		return "datetime"
	case String:
		return "hex-string"
	case Char:
		return "char"
	}
	return "unknown"
}

// Counts is the number of columns of each type.
type Counts struct {
	Float    int
	Int      int
	Datetime int
	String   int
	Char     int
}

// Of returns the count of t.
func (c Counts) Of(t Type) int {
	switch t {
	case Float:
		return c.Float
	case Int:
		return c.Int
	case Datetime:
		return c.Datetime
	case String:
		return c.String
	case Char:
		return c.Char
	}
	return 0
}

// Total returns the number of columns.
func (c Counts) Total() int {
	return c.Float + c.Int + c.Datetime + c.String + c.Char
}

// Uniform returns Counts with n columns of every type.
func Uniform(n int) Counts {
	return Counts{Float: n, Int: n, Datetime: n, String: n, Char: n}
}

// Column is a named column of values.
// Values hold float64, int64, time.Time or string depending on Type.
// A nil value is missing.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// Table is a column oriented table.
type Table struct {
	Columns []Column
	rows    int
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	return t.rows
}

// Names returns the column names.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the values of row i across columns.
func (t *Table) Row(i int) []any {
	r := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		r[j] = c.Values[i]
	}
	return r
}

// ColumnName returns the name of the column at position i, e.g. col_0007.
func ColumnName(i int) string {
	return fmt.Sprintf("col_%04d", i)
}

type options struct {
	seed uint64
}

// Option configures Generate.
type Option func(*options)

// WithSeed seeds the random source. Equal seeds produce equal tables.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// Generate builds a table of rows rows. It draws a rows x c.Total() matrix of
// standard normal features and converts contiguous column blocks, in the
// order of Types, with the transform of each type. Types with a zero count
// contribute no column. rows must be positive.
func Generate(rows int, c Counts, opts ...Option) *Table {
	o := options{seed: DefaultSeed}
	for _, f := range opts {
		f(&o)
	}

	r := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))

	total := c.Total()
	features := make([][]float64, rows)
	for i := range features {
		features[i] = make([]float64, total)
		for j := range features[i] {
			features[i][j] = r.NormFloat64()
		}
	}

	t := &Table{Columns: make([]Column, 0, total), rows: rows}

	idx := 0
	for _, typ := range Types {
		n := c.Of(typ)
		for k := 0; k < n; k++ {
			values := make([]any, rows)
			for i := 0; i < rows; i++ {
				values[i] = Transform(typ, features[i][idx])
			}
			t.Columns = append(t.Columns, Column{Name: ColumnName(idx), Type: typ, Values: values})
			idx++
		}
	}

	return t
}

// Transform converts a generated feature x into a value of type t.
func Transform(t Type, x float64) any {
	switch t {
	case Int:
		return scaled(x)
	case Datetime:
		return time.Unix(abs(scaled(x)), 0).UTC()
	case String:
		sum := sha1.Sum([]byte(strconv.FormatInt(scaled(x), 10)))
		return hex.EncodeToString(sum[:])
	case Char:
		m := scaled(x) % 26
		if m < 0 {
			m += 26
		}
		return string(rune('a' + m))
	}
	return x
}

func scaled(x float64) int64 {
	return int64(x * Scale)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Repeat returns a table holding n copies of the rows of t, one after another.
func Repeat(t *Table, n int) *Table {
	out := &Table{Columns: make([]Column, len(t.Columns)), rows: t.rows * n}

	for j, c := range t.Columns {
		values := make([]any, 0, len(c.Values)*n)
		for k := 0; k < n; k++ {
			values = append(values, c.Values...)
		}
		out.Columns[j] = Column{Name: c.Name, Type: c.Type, Values: values}
	}

	return out
}

// AddSparseFloat appends a float column named name which is missing on every
// row except the last len(tail) rows, holding tail.
// Delimited formats cannot tell such a column from a string column until the
// very last rows, while self describing formats keep it numeric.
func AddSparseFloat(t *Table, name string, tail ...float64) {
	values := make([]any, t.rows)

	start := t.rows - len(tail)
	for i, v := range tail {
		if start+i >= 0 {
			values[start+i] = v
		}
	}

	t.Columns = append(t.Columns, Column{Name: name, Type: Float, Values: values})
}
