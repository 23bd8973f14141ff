package tracestat

// compare.go joins an experiment run's flow records against a control
// run of the reference simulator and reduces the matched pairs to
// per-size completion-time ratios

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

// An Adjustment rewrites one completion time before the join, e.g.
// removing a fixed per-hop overhead or rescaling for frame overhead
type Adjustment func(fctNS float64) float64

// A CompareSpec configures one experiment/control comparison.  Both
// tables are expected in nanosecond units; the start column is rounded
// to the join granularity before keys are formed
type CompareSpec struct {
	// JoinKeys are the exact-match key columns (e.g. src, dst, size_byte)
	JoinKeys []string

	// StartColumn names the flow-start timestamp column (ns) rounded
	// into the key on both sides
	StartColumn string

	// RoundGranularityNS is the rounding unit for the start key; 1000
	// rounds nanoseconds to the nearest microsecond
	RoundGranularityNS float64

	// FCTColumn names the completion-time column (ns) on both sides
	FCTColumn string

	// SizeColumn names the flow-size column used by ratio aggregation
	SizeColumn string

	// AdjustExperiment and AdjustControl are applied to the respective
	// completion times before the ratio is formed.  Nil means identity
	AdjustExperiment Adjustment
	AdjustControl    Adjustment
}

// A ComparisonRow is one matched experiment/control flow pair
type ComparisonRow struct {
	Key           map[string]string `json:"key" yaml:"key"`
	SizeByte      int64             `json:"sizebyte" yaml:"sizebyte"`
	StartUnit     int64             `json:"startunit" yaml:"startunit"`
	ExperimentFCT float64           `json:"experimentfct" yaml:"experimentfct"`
	ControlFCT    float64           `json:"controlfct" yaml:"controlfct"`
	Ratio         float64           `json:"ratio" yaml:"ratio"`
}

// A RatioStat is the geometric-mean ratio of one flow-size group
type RatioStat struct {
	SizeByte int64   `json:"sizebyte" yaml:"sizebyte"`
	Count    int     `json:"count" yaml:"count"`
	GeoMean  float64 `json:"geomean" yaml:"geomean"`
}

// A CompareResult holds the matched pairs and the join accounting.
// Unmatched counts are reported rather than silently dropped: a low
// match rate usually means the two sides round their start keys
// differently, not that the data legitimately diverged
type CompareResult struct {
	Rows                []ComparisonRow `json:"rows" yaml:"rows"`
	Matched             int             `json:"matched" yaml:"matched"`
	UnmatchedExperiment int             `json:"unmatchedexperiment" yaml:"unmatchedexperiment"`
	UnmatchedControl    int             `json:"unmatchedcontrol" yaml:"unmatchedcontrol"`
}

// RoundStartUnit rounds a nanosecond start timestamp to the join
// granularity, half-to-even.  The reference scripts' rounding
// direction is not pinned down, so ties break to even here; a
// systematic mismatch against a control trace rounded the other way
// surfaces in the unmatched counts
func RoundStartUnit(startNS, granularityNS float64) int64 {
	return int64(math.RoundToEven(startNS / granularityNS))
}

// Compare inner-joins the experiment table against the control table
// on the spec's key columns plus the rounded start timestamp, and
// computes the completion-time ratio of every matched pair.  Rows
// without a partner on the other side are excluded from the output and
// counted.  Duplicate key tuples pair up in row order
func Compare(experiment, control *Table, spec CompareSpec) (*CompareResult, error) {
	if spec.RoundGranularityNS <= 0 {
		return nil, fmt.Errorf("comparison needs a positive start rounding granularity")
	}

	expKeys, err := joinKeys(experiment, spec)
	if err != nil {
		return nil, err
	}
	ctlKeys, err := joinKeys(control, spec)
	if err != nil {
		return nil, err
	}

	expFCT, err := experiment.NumericValues(spec.FCTColumn)
	if err != nil {
		return nil, err
	}
	ctlFCT, err := control.NumericValues(spec.FCTColumn)
	if err != nil {
		return nil, err
	}
	expSize, err := experiment.NumericValues(spec.SizeColumn)
	if err != nil {
		return nil, err
	}
	expStart, err := experiment.NumericValues(spec.StartColumn)
	if err != nil {
		return nil, err
	}

	// index control rows by key; duplicates queue up in row order
	ctlByKey := make(map[string][]int)
	for row, key := range ctlKeys {
		ctlByKey[key] = append(ctlByKey[key], row)
	}

	res := new(CompareResult)
	res.Rows = make([]ComparisonRow, 0, experiment.Len())

	for row, key := range expKeys {
		partners, present := ctlByKey[key]
		if !present || len(partners) == 0 {
			res.UnmatchedExperiment += 1
			continue
		}
		ctlRow := partners[0]
		ctlByKey[key] = partners[1:]

		eFCT := expFCT[row]
		if spec.AdjustExperiment != nil {
			eFCT = spec.AdjustExperiment(eFCT)
		}
		cFCT := ctlFCT[ctlRow]
		if spec.AdjustControl != nil {
			cFCT = spec.AdjustControl(cFCT)
		}

		keyMap, startUnit := keyFields(experiment, spec, row, expStart[row])
		res.Rows = append(res.Rows, ComparisonRow{
			Key:           keyMap,
			SizeByte:      int64(expSize[row]),
			StartUnit:     startUnit,
			ExperimentFCT: eFCT,
			ControlFCT:    cFCT,
			Ratio:         eFCT / cFCT,
		})
		res.Matched += 1
	}

	// whatever is left in the control index had no partner
	for _, partners := range ctlByKey {
		res.UnmatchedControl += len(partners)
	}

	if res.UnmatchedExperiment > 0 || res.UnmatchedControl > 0 {
		log.Warnf("comparison join dropped %d experiment and %d control rows (%d matched)",
			res.UnmatchedExperiment, res.UnmatchedControl, res.Matched)
	}

	return res, nil
}

// RatiosBySize reduces the matched pairs to a geometric-mean ratio per
// flow size, excluding flows at or below minSizeByte.  Completion-time
// ratios are multiplicative and right-skewed, so the geometric mean
// exp(mean(log r)) is the central tendency used; an arithmetic mean
// would overweight the tail.  Flows of a couple of packets sit on a
// fixed latency floor that swamps the ratio, hence the size cutoff
func (res *CompareResult) RatiosBySize(minSizeByte int64) []RatioStat {
	bySize := make(map[int64][]float64)
	for _, row := range res.Rows {
		if row.SizeByte <= minSizeByte {
			continue
		}
		bySize[row.SizeByte] = append(bySize[row.SizeByte], row.Ratio)
	}

	sizes := make([]int64, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	slices.Sort(sizes)

	out := make([]RatioStat, 0, len(sizes))
	for _, size := range sizes {
		ratios := bySize[size]
		out = append(out, RatioStat{
			SizeByte: size,
			Count:    len(ratios),
			GeoMean:  stat.GeometricMean(ratios, nil),
		})
	}
	return out
}

// joinKeys renders one join key string per table row
func joinKeys(tbl *Table, spec CompareSpec) ([]string, error) {
	starts, err := tbl.NumericValues(spec.StartColumn)
	if err != nil {
		return nil, err
	}
	for _, name := range spec.JoinKeys {
		if !tbl.HasCol(name) {
			return nil, fmt.Errorf("join key column %s not in table", name)
		}
	}

	keys := make([]string, tbl.Len())
	parts := make([]string, len(spec.JoinKeys)+1)
	for row := 0; row < tbl.Len(); row++ {
		for pos, name := range spec.JoinKeys {
			cell, cerr := tbl.CellString(name, row)
			if cerr != nil {
				return nil, cerr
			}
			parts[pos] = cell
		}
		parts[len(spec.JoinKeys)] = strconv.FormatInt(RoundStartUnit(starts[row], spec.RoundGranularityNS), 10)
		keys[row] = strings.Join(parts, "\x1f")
	}
	return keys, nil
}

// keyFields rebuilds the key of an experiment row as a name -> value
// map for reporting
func keyFields(tbl *Table, spec CompareSpec, row int, startNS float64) (map[string]string, int64) {
	keyMap := make(map[string]string)
	for _, name := range spec.JoinKeys {
		cell, _ := tbl.CellString(name, row)
		keyMap[name] = cell
	}
	startUnit := RoundStartUnit(startNS, spec.RoundGranularityNS)
	keyMap[spec.StartColumn] = strconv.FormatInt(startUnit, 10)
	return keyMap, startUnit
}
