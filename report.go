package tracestat

// report.go packages aggregation and comparison output for downstream
// consumers.  The structured report serializes to yaml or json by file
// extension; the aggregate tables can also be written as csv for
// spreadsheet-side inspection

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"

	"gopkg.in/yaml.v3"
)

// A SummaryReport collects everything one analysis run produced
type SummaryReport struct {
	// ExpName is the experiment the report describes
	ExpName string `json:"expname" yaml:"expname"`

	// Aggregates holds each aggregation's output under the label the
	// pipeline gave it (e.g. "fct_by_size")
	Aggregates map[string][]AggregateStat `json:"aggregates" yaml:"aggregates"`

	// Ratios is the per-size geometric-mean comparison outcome, when
	// a control trace was supplied
	Ratios []RatioStat `json:"ratios" yaml:"ratios"`

	// join accounting carried over from the comparison
	Matched          int `json:"matched" yaml:"matched"`
	UnmatchedExpRows int `json:"unmatchedexprows" yaml:"unmatchedexprows"`
	UnmatchedCtlRows int `json:"unmatchedctlrows" yaml:"unmatchedctlrows"`
}

// CreateSummaryReport is a constructor
func CreateSummaryReport(expName string) *SummaryReport {
	rpt := new(SummaryReport)
	rpt.ExpName = expName
	rpt.Aggregates = make(map[string][]AggregateStat)
	return rpt
}

// AddAggregates stores one aggregation's output under a label
func (rpt *SummaryReport) AddAggregates(label string, stats []AggregateStat) {
	rpt.Aggregates[label] = stats
}

// AddComparison stores a comparison's per-size ratios and its join
// accounting
func (rpt *SummaryReport) AddComparison(res *CompareResult, ratios []RatioStat) {
	rpt.Ratios = ratios
	rpt.Matched = res.Matched
	rpt.UnmatchedExpRows = res.UnmatchedExperiment
	rpt.UnmatchedCtlRows = res.UnmatchedControl
}

// WriteToFile stores the SummaryReport struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (rpt *SummaryReport) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*rpt)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*rpt, "", "\t")
	} else {
		merr = fmt.Errorf("report file %s needs a .yaml or .json extension", filename)
	}

	if merr != nil {
		return merr
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	_, werr := f.WriteString(string(bytes[:]))
	f.Close()

	return werr
}

// WriteAggregatesCSV writes one aggregation's output as csv: the
// group-by key columns first, then the metric columns
func WriteAggregatesCSV(filename string, groupBy []string, stats []AggregateStat) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, len(groupBy)+4)
	header = append(header, groupBy...)
	header = append(header, MetricCount, MetricMedian, MetricP90, MetricP99)
	if werr := w.Write(header); werr != nil {
		return werr
	}

	rec := make([]string, len(header))
	for _, as := range stats {
		for pos, name := range groupBy {
			rec[pos] = as.Group[name]
		}
		rec[len(groupBy)] = strconv.Itoa(as.Count)
		rec[len(groupBy)+1] = strconv.FormatFloat(as.Median, 'g', -1, 64)
		rec[len(groupBy)+2] = strconv.FormatFloat(as.P90, 'g', -1, 64)
		rec[len(groupBy)+3] = strconv.FormatFloat(as.P99, 'g', -1, 64)
		if werr := w.Write(rec); werr != nil {
			return werr
		}
	}

	w.Flush()
	return w.Error()
}
