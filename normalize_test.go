package tracestat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildEventTable constructs an event-style table with the given
// receive times; other columns are filled with plausible values
func buildEventTable(rxTimes []float64) *Table {
	tbl := CreateTable(EventLogSchema().Cols)
	for idx, rx := range rxTimes {
		tbl.appendFloat(ColSimTime, float64(1000*(idx+1)))
		tbl.appendFloat(ColTxTime, float64(2e6*(idx+1)))
		tbl.appendFloat(ColRxTime, rx)
		tbl.appendInt(ColSrc, int64(idx))
		tbl.appendInt(ColID, int64(idx%2))
		tbl.appendStr(ColType, "model")
		tbl.finishRow()
	}
	return tbl
}

func TestSentinelFiltering(t *testing.T) {
	tbl := buildEventTable([]float64{0, 5, 0, 10})

	out, err := Normalize(tbl, NormSpec{
		Sentinel: &SentinelFilter{Column: ColRxTime, Sentinel: 0},
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	rx, err := out.Floats(ColRxTime)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10}, rx)

	// input table untouched
	assert.Equal(t, 4, tbl.Len())
}

func TestSentinelExhaustion(t *testing.T) {
	tbl := buildEventTable([]float64{0, 0, 0})

	out, err := Normalize(tbl, NormSpec{
		Sentinel: &SentinelFilter{Column: ColRxTime, Sentinel: 0},
	})
	require.Error(t, err)

	var exhausted *SentinelFilterExhaustionError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, ColRxTime, exhausted.Column)
	assert.Equal(t, 3, exhausted.Examined)

	// the empty table still comes back so the caller can continue
	require.NotNil(t, out)
	assert.Equal(t, 0, out.Len())
}

func TestUnitConversions(t *testing.T) {
	tbl := buildEventTable([]float64{2e6, 4e6})

	out, err := Normalize(tbl, EventNormSpec(0.1, 1.5))
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	simTimes, err := out.Floats(ColSimTime)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, simTimes)

	rx, err := out.Floats(ColRxTime)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, rx)
}

func TestDerivedStartBranchesOnEventType(t *testing.T) {
	tbl := CreateTable(EventLogSchema().Cols)
	for idx, typ := range []string{"model", EventTypePacket} {
		tbl.appendFloat(ColSimTime, 10000)
		tbl.appendFloat(ColTxTime, 1e6)
		tbl.appendFloat(ColRxTime, 2e6)
		tbl.appendInt(ColSrc, int64(idx))
		tbl.appendInt(ColID, int64(idx))
		tbl.appendStr(ColType, typ)
		tbl.finishRow()
	}

	out, err := Normalize(tbl, EventNormSpec(0.1, 1.5))
	require.NoError(t, err)

	starts, err := out.Floats(ColStart)
	require.NoError(t, err)
	require.Len(t, starts, 2)

	// sim_time normalizes to 10 us; packet events start a further 1.5 us earlier
	assert.InDelta(t, 9.9, starts[0], 1e-12)
	assert.InDelta(t, 8.4, starts[1], 1e-12)
}

func TestNormalizeIdempotent(t *testing.T) {
	tbl := buildEventTable([]float64{2e6, 4e6, 6e6})

	once, err := Normalize(tbl, EventNormSpec(0.1, 1.5))
	require.NoError(t, err)

	// a second pass with identity conversions and no derivations
	// must reproduce the table exactly
	noop := NormSpec{UnitConversions: map[string]float64{ColSimTime: 1, ColRxTime: 1}}
	twice, err := Normalize(once, noop)
	require.NoError(t, err)

	require.Equal(t, once.Len(), twice.Len())
	for _, col := range []string{ColSimTime, ColTxTime, ColRxTime, ColStart} {
		a, aerr := once.Floats(col)
		require.NoError(t, aerr)
		b, berr := twice.Floats(col)
		require.NoError(t, berr)
		assert.Equal(t, a, b, col)
	}
}

func TestFlowStartDerivation(t *testing.T) {
	tbl := CreateTable(FlowSchema().Cols)
	tbl.appendInt(ColSrc, 1)
	tbl.appendInt(ColDst, 2)
	tbl.appendFloat(ColStart, 500)
	tbl.appendFloat(ColEnd, 1500)
	tbl.appendInt(ColSizeByte, 100)
	tbl.appendFloat(ColFctNS, 1000)
	tbl.finishRow()

	out, err := Normalize(tbl, FlowNormSpec())
	require.NoError(t, err)

	starts, err := out.Floats(ColStartNS)
	require.NoError(t, err)
	assert.Equal(t, []float64{500}, starts)
}

func TestControlUnitPromotion(t *testing.T) {
	tbl := CreateTable(ControlSchema().Cols)
	tbl.appendStr(ColType, "flow")
	tbl.appendInt(ColSrc, 1)
	tbl.appendInt(ColDst, 2)
	tbl.appendInt(ColSizeByte, 100)
	tbl.appendFloat(ColFctMS, 0.5)
	tbl.appendFloat(ColStartMS, 2.0)
	tbl.finishRow()

	out, err := Normalize(tbl, ControlNormSpec())
	require.NoError(t, err)

	fct, err := out.Floats(ColFctNS)
	require.NoError(t, err)
	assert.Equal(t, []float64{5e5}, fct)

	starts, err := out.Floats(ColStartNS)
	require.NoError(t, err)
	assert.Equal(t, []float64{2e6}, starts)
}
