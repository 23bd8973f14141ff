package tracestat

// aggregate.go groups table rows by key columns and reduces a value
// column to order statistics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// metric names accepted by Aggregate
const (
	MetricCount  = "count"
	MetricMedian = "median"
	MetricP90    = "p90"
	MetricP99    = "p99"
)

// An AggregateStat holds the reduced statistics of one group.  Group
// maps each group-by column to the value shared by the group's rows.
// Only the requested metrics are populated
type AggregateStat struct {
	Group  map[string]string `json:"group" yaml:"group"`
	Count  int               `json:"count" yaml:"count"`
	Median float64           `json:"median" yaml:"median"`
	P90    float64           `json:"p90" yaml:"p90"`
	P99    float64           `json:"p99" yaml:"p99"`
}

// GroupFloat returns the group's value in the named key column parsed
// as a float64, for callers that plot statistics against a numeric key
func (as *AggregateStat) GroupFloat(name string) (float64, error) {
	raw, present := as.Group[name]
	if !present {
		return 0, fmt.Errorf("aggregate group has no key column %s", name)
	}
	return strconv.ParseFloat(raw, 64)
}

// Aggregate groups the table's rows by the groupBy columns and reduces
// the value column within each group to the requested metrics.  The
// output carries one row per distinct key tuple, sorted ascending by
// the first group-by column (numerically when that column is numeric
// or integer).  A zero-row input yields an EmptyGroupError
func Aggregate(tbl *Table, groupBy []string, valueColumn string, metrics []string) ([]AggregateStat, error) {
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("aggregation needs at least one group-by column")
	}
	for _, m := range metrics {
		switch m {
		case MetricCount, MetricMedian, MetricP90, MetricP99:
		default:
			return nil, fmt.Errorf("unknown metric %s", m)
		}
	}
	if tbl.Len() == 0 {
		return nil, &EmptyGroupError{ValueColumn: valueColumn}
	}

	values, err := tbl.NumericValues(valueColumn)
	if err != nil {
		return nil, err
	}

	// render the key columns once
	keyCells := make([][]string, len(groupBy))
	for pos, name := range groupBy {
		keyCells[pos] = make([]string, tbl.Len())
		for row := 0; row < tbl.Len(); row++ {
			cell, cerr := tbl.CellString(name, row)
			if cerr != nil {
				return nil, cerr
			}
			keyCells[pos][row] = cell
		}
	}

	// bucket values by joined key tuple
	groups := make(map[string][]float64)
	firstKey := make(map[string]string)
	for row := 0; row < tbl.Len(); row++ {
		parts := make([]string, len(groupBy))
		for pos := range groupBy {
			parts[pos] = keyCells[pos][row]
		}
		key := strings.Join(parts, "\x1f")
		groups[key] = append(groups[key], values[row])
		firstKey[key] = parts[0]
	}

	// deterministic group order: ascending on the first key column
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	firstKind, _ := tbl.Kind(groupBy[0])
	if firstKind == StringCol {
		slices.Sort(keys)
	} else {
		slices.SortFunc(keys, func(a, b string) int {
			fa, _ := strconv.ParseFloat(firstKey[a], 64)
			fb, _ := strconv.ParseFloat(firstKey[b], 64)
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return strings.Compare(a, b)
		})
	}

	stats := make([]AggregateStat, 0, len(keys))
	for _, key := range keys {
		vals := groups[key]
		sorted := make([]float64, len(vals))
		copy(sorted, vals)
		slices.Sort(sorted)

		as := AggregateStat{Group: make(map[string]string)}
		for pos, part := range strings.Split(key, "\x1f") {
			as.Group[groupBy[pos]] = part
		}
		for _, m := range metrics {
			switch m {
			case MetricCount:
				as.Count = len(sorted)
			case MetricMedian:
				as.Median = Quantile(0.5, sorted)
			case MetricP90:
				as.P90 = Quantile(0.9, sorted)
			case MetricP99:
				as.P99 = Quantile(0.99, sorted)
			}
		}
		stats = append(stats, as)
	}

	return stats, nil
}

// Quantile computes the linear-interpolation quantile (the estimator R
// documents as type 7) of an ascending-sorted sample: the p-quantile
// sits at rank p*(n-1) and is interpolated between the two bracketing
// order statistics.  gonum's stat.Quantile interpolates on a different
// rank convention, so this estimator is written out
func Quantile(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		panic("quantile of empty sample")
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
