package tracestat

// render.go turns aggregation and comparison output into plot files.
// Everything here consumes only the exported output types, so a
// different reporting backend can replace it without touching the
// pipeline stages

import (
	"fmt"
	"image/color"

	log "github.com/sirupsen/logrus"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotFCTBySize renders the per-size completion-time percentiles as a
// log-log chart: one line-and-points series each for median, p90 and
// p99 against flow size.  The stats must have been grouped by a
// numeric size column
func PlotFCTBySize(stats []AggregateStat, sizeColumn, title, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "flow size (bytes)"
	p.Y.Label.Text = "FCT (ns)"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Y.Tick.Marker = plot.LogTicks{}

	median := make(plotter.XYs, 0, len(stats))
	p90 := make(plotter.XYs, 0, len(stats))
	p99 := make(plotter.XYs, 0, len(stats))
	for _, as := range stats {
		size, err := as.GroupFloat(sizeColumn)
		if err != nil {
			return err
		}
		median = append(median, plotter.XY{X: size, Y: as.Median})
		p90 = append(p90, plotter.XY{X: size, Y: as.P90})
		p99 = append(p99, plotter.XY{X: size, Y: as.P99})
	}

	err := plotutil.AddLinePoints(p, "median", median, "p90", p90, "p99", p99)
	if err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, filename)
}

// PlotRatioBySize renders the geometric-mean experiment/control ratio
// against flow size, log-scaled on the size axis, with a reference
// line at ratio 1
func PlotRatioBySize(ratios []RatioStat, title, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "flow size (bytes)"
	p.Y.Label.Text = "FCT ratio (geometric mean)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}

	xys := make(plotter.XYs, 0, len(ratios))
	for _, rs := range ratios {
		xys = append(xys, plotter.XY{X: float64(rs.SizeByte), Y: rs.GeoMean})
	}

	err := plotutil.AddLinePoints(p, "ratio", xys)
	if err != nil {
		return err
	}

	// unity line marks parity between the simulators
	if len(ratios) > 0 {
		unity := plotter.XYs{
			{X: float64(ratios[0].SizeByte), Y: 1},
			{X: float64(ratios[len(ratios)-1].SizeByte), Y: 1},
		}
		line, lerr := plotter.NewLine(unity)
		if lerr != nil {
			return lerr
		}
		line.LineStyle.Color = color.Gray{Y: 128}
		p.Add(line)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, filename)
}

// PlotFCTCDF renders the empirical CDF of a completion-time sample
func PlotFCTCDF(fctNS []float64, title, filename string) error {
	sorted := make([]float64, len(fctNS))
	copy(sorted, fctNS)
	slices.Sort(sorted)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "FCT (ns)"
	p.Y.Label.Text = "P(x)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Y.Tick.Marker = hplot.Ticks{N: 10}

	xys := make(plotter.XYs, len(sorted))
	for idx, v := range sorted {
		xys[idx].X = v
		xys[idx].Y = stat.CDF(v, stat.Empirical, sorted, nil)
	}

	err := plotutil.AddLines(p, "FCT", xys)
	if err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, filename)
}

// PlotFCTHistogram renders a completion-time histogram over a fixed
// bin count spanning the sample's extent
func PlotFCTHistogram(fctNS []float64, bins int, title, filename string) error {
	if len(fctNS) == 0 {
		return fmt.Errorf("histogram of empty completion-time sample")
	}
	lo := slices.Min(fctNS)
	hi := slices.Max(fctNS)
	if hi == lo {
		hi = lo + 1
	}

	h := hbook.NewH1D(bins, lo, hi)
	for _, v := range fctNS {
		h.Fill(v, 1)
	}

	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = "FCT (ns)"
	p.Y.Label.Text = "flows"

	hh := hplot.NewH1D(h)
	hh.FillColor = color.Transparent
	hh.Infos.Style = hplot.HInfoNone
	p.Add(hh)
	p.Add(plotter.NewGrid())

	return p.Save(20*vg.Centimeter, -1, filename)
}

// PlotEventTimeline renders each event inside the window as a
// horizontal segment from its derived start to its sim_time, stacked
// by the entity id the event belongs to.  The table must be an event
// table normalized by EventNormSpec
func PlotEventTimeline(events *Table, windowLoUS, windowHiUS float64, title, filename string) error {
	simTimes, err := events.Floats(ColSimTime)
	if err != nil {
		return err
	}
	starts, err := events.Floats(ColStart)
	if err != nil {
		return err
	}
	ids, err := events.Ints(ColID)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "sim time (us)"
	p.Y.Label.Text = "entity id"
	p.X.Tick.Marker = hplot.Ticks{N: 10}

	drawn := 0
	for row := 0; row < events.Len(); row++ {
		if simTimes[row] < windowLoUS || simTimes[row] > windowHiUS {
			continue
		}
		seg := plotter.XYs{
			{X: starts[row], Y: float64(ids[row])},
			{X: simTimes[row], Y: float64(ids[row])},
		}
		line, lerr := plotter.NewLine(seg)
		if lerr != nil {
			return lerr
		}
		p.Add(line)
		drawn += 1
	}

	if drawn == 0 {
		log.Warnf("timeline window [%g, %g] us holds no events", windowLoUS, windowHiUS)
	}

	return p.Save(10*vg.Inch, 5*vg.Inch, filename)
}
