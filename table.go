package tracestat

// table.go has the column-typed in-memory table that every pipeline
// stage consumes and produces.  Tables are built once by the loader
// (or by a transformation) and never mutated afterward.

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// A ColKind identifies the primitive type of a table column
type ColKind int

const (
	// NumericCol columns hold float64 values (timestamps, durations)
	NumericCol ColKind = iota

	// IntegerCol columns hold int64 values (sizes, endpoint ids)
	IntegerCol

	// StringCol columns hold categorical string values (event types)
	StringCol
)

var ckToStr map[ColKind]string = map[ColKind]string{NumericCol: "numeric", IntegerCol: "integer", StringCol: "string"}

// A ColSpec names one column and gives its kind.  Schemas bind columns
// by name rather than by a positional type-code string so that a
// misaligned input file fails loudly instead of silently shifting values
type ColSpec struct {
	Name string  `json:"name" yaml:"name"`
	Kind ColKind `json:"kind" yaml:"kind"`
}

// A TableSchema describes the layout of one delimited input file:
// the ordered column list plus the framing details needed to skip
// non-data lines
type TableSchema struct {
	// Name identifies the schema in error messages
	Name string `json:"name" yaml:"name"`

	// Cols is the ordered list of expected columns
	Cols []ColSpec `json:"cols" yaml:"cols"`

	// Comma is the field delimiter.  A space selects
	// whitespace-run splitting rather than single-character splitting
	Comma rune `json:"comma" yaml:"comma"`

	// Skip counts leading lines dropped before any data is read
	Skip int `json:"skip" yaml:"skip"`

	// Comment is a prefix marking lines excluded from the data
	// (e.g. the trailing "Util..." summary the reference simulator emits)
	Comment string `json:"comment" yaml:"comment"`

	// Header reports whether the first retained line names the columns.
	// When set the names are checked against Cols
	Header bool `json:"header" yaml:"header"`
}

// A Table is an immutable columnar snapshot of one input file or of
// one transformation's output.  Column storage is segregated by kind
type Table struct {
	cols    []ColSpec
	numeric map[string][]float64
	integer map[string][]int64
	str     map[string][]string
	rows    int
}

// CreateTable is a constructor.  It builds an empty table with the
// given column layout; the loader and the normalizer fill it
func CreateTable(cols []ColSpec) *Table {
	tbl := new(Table)
	tbl.cols = make([]ColSpec, len(cols))
	copy(tbl.cols, cols)
	tbl.numeric = make(map[string][]float64)
	tbl.integer = make(map[string][]int64)
	tbl.str = make(map[string][]string)

	for _, col := range cols {
		switch col.Kind {
		case NumericCol:
			tbl.numeric[col.Name] = make([]float64, 0)
		case IntegerCol:
			tbl.integer[col.Name] = make([]int64, 0)
		case StringCol:
			tbl.str[col.Name] = make([]string, 0)
		}
	}
	return tbl
}

// Len returns the number of rows in the table
func (tbl *Table) Len() int {
	return tbl.rows
}

// Cols returns a copy of the table's column layout
func (tbl *Table) Cols() []ColSpec {
	cols := make([]ColSpec, len(tbl.cols))
	copy(cols, tbl.cols)
	return cols
}

// HasCol reports whether the named column is present
func (tbl *Table) HasCol(name string) bool {
	return slices.ContainsFunc(tbl.cols, func(cs ColSpec) bool { return cs.Name == name })
}

// Kind returns the kind of the named column, and an error if the
// column is not present
func (tbl *Table) Kind(name string) (ColKind, error) {
	for _, col := range tbl.cols {
		if col.Name == name {
			return col.Kind, nil
		}
	}
	return NumericCol, fmt.Errorf("table has no column %s", name)
}

// Floats returns the storage slice of a numeric column.  Callers must
// not modify the returned slice
func (tbl *Table) Floats(name string) ([]float64, error) {
	vals, present := tbl.numeric[name]
	if !present {
		return nil, fmt.Errorf("no numeric column %s", name)
	}
	return vals, nil
}

// Ints returns the storage slice of an integer column
func (tbl *Table) Ints(name string) ([]int64, error) {
	vals, present := tbl.integer[name]
	if !present {
		return nil, fmt.Errorf("no integer column %s", name)
	}
	return vals, nil
}

// Strs returns the storage slice of a string column
func (tbl *Table) Strs(name string) ([]string, error) {
	vals, present := tbl.str[name]
	if !present {
		return nil, fmt.Errorf("no string column %s", name)
	}
	return vals, nil
}

// NumericValues returns the named column widened to float64, accepting
// either a numeric or an integer column.  Used where a computation
// (quantiles, ratios) does not care about the stored width
func (tbl *Table) NumericValues(name string) ([]float64, error) {
	if vals, present := tbl.numeric[name]; present {
		out := make([]float64, len(vals))
		copy(out, vals)
		return out, nil
	}
	if vals, present := tbl.integer[name]; present {
		out := make([]float64, len(vals))
		for idx, v := range vals {
			out[idx] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("no numeric or integer column %s", name)
}

// CellString renders the cell at (row, col name) as a string,
// independent of the column kind.  Grouping and join keys are built
// from these renderings
func (tbl *Table) CellString(name string, row int) (string, error) {
	if vals, present := tbl.numeric[name]; present {
		return fmt.Sprintf("%g", vals[row]), nil
	}
	if vals, present := tbl.integer[name]; present {
		return fmt.Sprintf("%d", vals[row]), nil
	}
	if vals, present := tbl.str[name]; present {
		return vals[row], nil
	}
	return "", fmt.Errorf("table has no column %s", name)
}

// A Row is a read-only view of one table row, handed to derived-column
// functions
type Row struct {
	tbl *Table
	idx int
}

// Row returns the view of the row with the given index
func (tbl *Table) Row(idx int) Row {
	return Row{tbl: tbl, idx: idx}
}

// Float returns the row's value in the named numeric column,
// widening an integer column if that is what the name resolves to.
// A missing column panics: derived-column functions are written against
// a schema fixed at configuration time, so this is a programming error
func (r Row) Float(name string) float64 {
	if vals, present := r.tbl.numeric[name]; present {
		return vals[r.idx]
	}
	if vals, present := r.tbl.integer[name]; present {
		return float64(vals[r.idx])
	}
	panic(fmt.Sprintf("row access to missing numeric column %s", name))
}

// Int returns the row's value in the named integer column
func (r Row) Int(name string) int64 {
	vals, present := r.tbl.integer[name]
	if !present {
		panic(fmt.Sprintf("row access to missing integer column %s", name))
	}
	return vals[r.idx]
}

// Str returns the row's value in the named string column
func (r Row) Str(name string) string {
	vals, present := r.tbl.str[name]
	if !present {
		panic(fmt.Sprintf("row access to missing string column %s", name))
	}
	return vals[r.idx]
}

// appendFloat, appendInt, and appendStr grow a column during table
// construction.  They are unexported: once a builder returns a table
// no more rows are added
func (tbl *Table) appendFloat(name string, v float64) {
	tbl.numeric[name] = append(tbl.numeric[name], v)
}

func (tbl *Table) appendInt(name string, v int64) {
	tbl.integer[name] = append(tbl.integer[name], v)
}

func (tbl *Table) appendStr(name string, v string) {
	tbl.str[name] = append(tbl.str[name], v)
}

// finishRow records that one complete row has been appended
func (tbl *Table) finishRow() {
	tbl.rows += 1
}
