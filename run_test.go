package tracestat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// TestRunEndToEnd drives the full pipeline from files on disk: flow
// aggregation by size plus a comparison against a control trace whose
// flows line up with the experiment's
func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	flows := filepath.Join(dir, "flows.csv")
	writeFile(t, flows,
		"src,dst,start,end,size_byte,fct_ns\n"+
			"1,2,50000,60000,9000,10000\n"+
			"1,2,80000,100000,9000,20000\n"+
			"3,4,10000,40000,18000,30000\n"+
			"3,4,20000,60000,18000,40000\n"+
			"5,6,30000,80000,18000,50000\n")

	control := filepath.Join(dir, "control.txt")
	writeFile(t, control,
		"type src dst size_byte fct_ms start_ms\n"+
			"flow 1 2 9000 0.005 0.05\n"+
			"flow 1 2 9000 0.010 0.08\n"+
			"flow 3 4 18000 0.015 0.01\n"+
			"flow 3 4 18000 0.020 0.02\n"+
			"flow 5 6 18000 0.025 0.03\n"+
			"flow 7 8 27000 0.001 0.07\n"+
			"Util 0.99\n")

	cfg := CreateAnalysisCfg("endtoend")
	cfg.Flows = flows
	cfg.Control = control
	cfg.HopOverheadNS = 0 // no adjustment, keep the ratios exact
	cfg.ScaleControl = false
	cfg.MinFlowSizeByte = 0

	out, err := Run(cfg)
	require.NoError(t, err)

	// aggregation: two size groups, medians per the type-7 estimator
	require.Len(t, out.FCTBySize, 2)
	assert.Equal(t, "9000", out.FCTBySize[0].Group[ColSizeByte])
	assert.Equal(t, 15000.0, out.FCTBySize[0].Median)
	assert.Equal(t, "18000", out.FCTBySize[1].Group[ColSizeByte])
	assert.Equal(t, 40000.0, out.FCTBySize[1].Median)

	// comparison: all five experiment flows match, the extra control
	// flow does not
	require.NotNil(t, out.Comparison)
	assert.Equal(t, 5, out.Comparison.Matched)
	assert.Equal(t, 0, out.Comparison.UnmatchedExperiment)
	assert.Equal(t, 1, out.Comparison.UnmatchedControl)

	// every experiment FCT is exactly double its control partner
	require.Len(t, out.Ratios, 2)
	for _, rs := range out.Ratios {
		assert.InDelta(t, 2.0, rs.GeoMean, 1e-12)
	}

	// report carries the same content
	assert.Equal(t, 5, out.Report.Matched)
	assert.Len(t, out.Report.Aggregates["fct_by_size"], 2)
}

func TestRunControlWithoutFlows(t *testing.T) {
	dir := t.TempDir()
	control := filepath.Join(dir, "control.txt")
	writeFile(t, control, "caption\nflow 1 2 100 0.5 2.0\n")

	cfg := CreateAnalysisCfg("bad")
	cfg.Control = control

	_, err := Run(cfg)
	assert.Error(t, err)
}

func TestRunMissingInput(t *testing.T) {
	cfg := CreateAnalysisCfg("missing")
	cfg.Flows = filepath.Join(t.TempDir(), "absent.csv")

	_, err := Run(cfg)
	assert.Error(t, err)
}

func TestRunEventPipeline(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "out.log")
	writeFile(t, events,
		"sim_time,tx_time,rx_time,src,id,type\n"+
			"1000,1000000,2000000,1,7,model\n"+
			"2000,1500000,0,2,8,packet\n"+
			"3000,2000000,4000000,2,8,packet\n")

	cfg := CreateAnalysisCfg("events")
	cfg.EventLog = events

	out, err := Run(cfg)
	require.NoError(t, err)
	require.NotNil(t, out.Events)

	// the unreceived event is gone, the others carry derived starts
	require.Equal(t, 2, out.Events.Len())
	starts, serr := out.Events.Floats(ColStart)
	require.NoError(t, serr)
	assert.InDelta(t, 0.9, starts[0], 1e-12)
	assert.InDelta(t, 1.4, starts[1], 1e-12)
}
