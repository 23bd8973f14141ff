package tracestat

// normalize.go derives the analysis columns from a freshly loaded
// table: unit conversions, computed columns, and sentinel-row removal.
// The input table is never modified; each call builds a new one

import (
	"fmt"
)

// A DerivedColumn adds one numeric column computed as a pure function
// of a row's existing fields.  The function sees unit-converted values
type DerivedColumn struct {
	Name string
	Fn   func(Row) float64
}

// A SentinelFilter drops rows whose named column holds the sentinel
// value.  The trace logger writes a zero receive time for events that
// have not arrived yet; those rows carry no measurement
type SentinelFilter struct {
	Column   string
	Sentinel float64
}

// A NormSpec configures one normalization pass
type NormSpec struct {
	// UnitConversions maps a numeric column name to the divisor
	// applied to every value in it (e.g. 1000 to turn ns into us)
	UnitConversions map[string]float64

	// Derived lists the columns appended by this pass
	Derived []DerivedColumn

	// Sentinel, when non-nil, removes rows before conversion
	Sentinel *SentinelFilter
}

// Normalize applies a NormSpec to a table and returns the result as a
// new table.  Conversion happens before derivation, so derived
// functions read converted values.  If the sentinel filter removes
// every row the empty table is returned together with a
// SentinelFilterExhaustionError so the caller can report it and
// continue with other pipelines
func Normalize(tbl *Table, spec NormSpec) (*Table, error) {
	// validate the conversion targets up front
	for name := range spec.UnitConversions {
		kind, err := tbl.Kind(name)
		if err != nil {
			return nil, err
		}
		if kind != NumericCol {
			return nil, fmt.Errorf("unit conversion on %s column %s", ckToStr[kind], name)
		}
	}

	// choose the surviving row indices
	keep := make([]int, 0, tbl.Len())
	if spec.Sentinel != nil {
		vals, err := tbl.NumericValues(spec.Sentinel.Column)
		if err != nil {
			return nil, err
		}
		for idx, v := range vals {
			if v != spec.Sentinel.Sentinel {
				keep = append(keep, idx)
			}
		}
	} else {
		for idx := 0; idx < tbl.Len(); idx++ {
			keep = append(keep, idx)
		}
	}

	// assemble the output layout: source columns then derived columns
	cols := tbl.Cols()
	for _, dc := range spec.Derived {
		cols = append(cols, ColSpec{Name: dc.Name, Kind: NumericCol})
	}
	out := CreateTable(cols)

	srcCols := tbl.Cols()
	for _, idx := range keep {
		for _, col := range srcCols {
			switch col.Kind {
			case NumericCol:
				vals, _ := tbl.Floats(col.Name)
				v := vals[idx]
				if div, present := spec.UnitConversions[col.Name]; present {
					v = v / div
				}
				out.appendFloat(col.Name, v)
			case IntegerCol:
				vals, _ := tbl.Ints(col.Name)
				out.appendInt(col.Name, vals[idx])
			case StringCol:
				vals, _ := tbl.Strs(col.Name)
				out.appendStr(col.Name, vals[idx])
			}
		}
		out.finishRow()
	}

	// derived columns read the converted row just written
	for _, dc := range spec.Derived {
		for row := 0; row < out.Len(); row++ {
			out.numeric[dc.Name] = append(out.numeric[dc.Name], dc.Fn(out.Row(row)))
		}
	}

	if spec.Sentinel != nil && out.Len() == 0 && tbl.Len() > 0 {
		return out, &SentinelFilterExhaustionError{
			Column:   spec.Sentinel.Column,
			Sentinel: spec.Sentinel.Sentinel,
			Examined: tbl.Len(),
		}
	}

	return out, nil
}
