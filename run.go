package tracestat

// run.go drives the whole pipeline for one configuration: load each
// configured trace, normalize it, aggregate, compare against the
// control run, and hand the results to the report and plot writers

import (
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// RunOutput carries everything one pipeline run computed, for callers
// that want the tables rather than (or in addition to) the files
type RunOutput struct {
	Events     *Table
	Flows      *Table
	Control    *Table
	FCTBySize  []AggregateStat
	Comparison *CompareResult
	Ratios     []RatioStat
	Report     *SummaryReport
}

// Run executes the analysis the configuration describes.  Pipelines
// whose input file is not configured are skipped.  A sentinel-filter
// exhaustion is reported and the run continues; schema mismatches and
// aggregation failures abort
func Run(cfg *AnalysisCfg) (*RunOutput, error) {
	out := new(RunOutput)
	out.Report = CreateSummaryReport(cfg.Name)

	inputs := []string{cfg.EventLog, cfg.Flows, cfg.Control}
	if valid, err := CheckReadableFiles(nonEmpty(inputs)); !valid {
		return nil, err
	}

	if len(cfg.EventLog) > 0 {
		events, err := loadEvents(cfg)
		if err != nil {
			return nil, err
		}
		out.Events = events
	}

	if len(cfg.Flows) > 0 {
		flows, err := loadFlows(cfg)
		if err != nil {
			return nil, err
		}
		out.Flows = flows

		stats, err := Aggregate(flows, []string{ColSizeByte}, ColFctNS,
			[]string{MetricCount, MetricMedian, MetricP90, MetricP99})
		if err != nil {
			return nil, err
		}
		out.FCTBySize = stats
		out.Report.AddAggregates("fct_by_size", stats)
	}

	if len(cfg.Control) > 0 {
		if out.Flows == nil {
			return nil, fmt.Errorf("control trace %s configured without experiment flows", cfg.Control)
		}
		control, err := loadControl(cfg)
		if err != nil {
			return nil, err
		}
		out.Control = control

		res, err := Compare(out.Flows, control, cfg.CompareSpec())
		if err != nil {
			return nil, err
		}
		out.Comparison = res
		out.Ratios = res.RatiosBySize(cfg.MinFlowSizeByte)
		out.Report.AddComparison(res, out.Ratios)
	}

	return out, nil
}

// RenderAll writes every plot the run's outputs support into the
// configuration's plot directory
func RenderAll(cfg *AnalysisCfg, out *RunOutput) error {
	if len(cfg.PlotDir) == 0 {
		return nil
	}
	if valid, err := CheckDirectories([]string{cfg.PlotDir}); !valid {
		return err
	}

	errs := make([]error, 0)

	if out.FCTBySize != nil {
		errs = append(errs, PlotFCTBySize(out.FCTBySize, ColSizeByte,
			cfg.Name+" FCT by size", filepath.Join(cfg.PlotDir, "fct_by_size.png")))
	}

	if out.Flows != nil && out.Flows.Len() > 0 {
		fcts, err := out.Flows.NumericValues(ColFctNS)
		if err != nil {
			return err
		}
		errs = append(errs, PlotFCTCDF(fcts, cfg.Name+" FCT CDF",
			filepath.Join(cfg.PlotDir, "fct_cdf.png")))
		errs = append(errs, PlotFCTHistogram(fcts, 100, cfg.Name+" FCT distribution",
			filepath.Join(cfg.PlotDir, "fct_hist.png")))
	}

	if out.Ratios != nil {
		errs = append(errs, PlotRatioBySize(out.Ratios, cfg.Name+" FCT ratio vs control",
			filepath.Join(cfg.PlotDir, "ratio_by_size.png")))
	}

	if out.Events != nil && out.Events.Len() > 0 {
		simTimes, err := out.Events.Floats(ColSimTime)
		if err != nil {
			return err
		}
		ws := CreateWindowSampler(cfg.WindowStream, cfg.WindowSpanUS)
		lo, hi := ws.Sample(slices.Min(simTimes), slices.Max(simTimes))
		errs = append(errs, PlotEventTimeline(out.Events, lo, hi,
			cfg.Name+" event timeline", filepath.Join(cfg.PlotDir, "timeline.png")))
	}

	return ReportErrs(errs)
}

// loadEvents reads and normalizes the event trace.  An exhausted
// sentinel filter is logged and the empty table kept, so the rest of
// the run proceeds
func loadEvents(cfg *AnalysisCfg) (*Table, error) {
	raw, err := LoadTable(cfg.EventLog, EventLogSchema())
	if err != nil {
		return nil, err
	}
	events, err := Normalize(raw, EventNormSpec(cfg.BaseOffsetUS, cfg.PacketExtraUS))
	if err != nil {
		var exhausted *SentinelFilterExhaustionError
		if errors.As(err, &exhausted) {
			log.Warnf("%s: %s", cfg.EventLog, exhausted.Error())
			return events, nil
		}
		return nil, err
	}
	log.Infof("loaded %d events from %s (%d before receive filter)", events.Len(), cfg.EventLog, raw.Len())
	return events, nil
}

func loadFlows(cfg *AnalysisCfg) (*Table, error) {
	raw, err := LoadTable(cfg.Flows, FlowSchema())
	if err != nil {
		return nil, err
	}
	flows, err := Normalize(raw, FlowNormSpec())
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d flows from %s", flows.Len(), cfg.Flows)
	return flows, nil
}

func loadControl(cfg *AnalysisCfg) (*Table, error) {
	raw, err := LoadTable(cfg.Control, ControlSchema())
	if err != nil {
		return nil, err
	}
	control, err := Normalize(raw, ControlNormSpec())
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d control flows from %s", control.Len(), cfg.Control)
	return control, nil
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if len(name) > 0 {
			out = append(out, name)
		}
	}
	return out
}
