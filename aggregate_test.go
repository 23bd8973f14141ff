package tracestat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFlowTable constructs a small flow-style table for tests
func buildFlowTable(sizes []int64, fcts []float64) *Table {
	tbl := CreateTable([]ColSpec{
		{Name: ColSizeByte, Kind: IntegerCol},
		{Name: ColFctNS, Kind: NumericCol},
	})
	for idx := range sizes {
		tbl.appendInt(ColSizeByte, sizes[idx])
		tbl.appendFloat(ColFctNS, fcts[idx])
		tbl.finishRow()
	}
	return tbl
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sample := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	// the type-7 estimator puts the median exactly between the two
	// middle order statistics and p90 at rank 0.9*(n-1)
	assert.Equal(t, 5.5, Quantile(0.5, sample))
	assert.InDelta(t, 9.1, Quantile(0.9, sample), 1e-12)
	assert.Equal(t, 1.0, Quantile(0, sample))
	assert.Equal(t, 10.0, Quantile(1, sample))
}

func TestQuantileSingleton(t *testing.T) {
	assert.Equal(t, 42.0, Quantile(0.9, []float64{42}))
}

func TestAggregateBySize(t *testing.T) {
	tbl := buildFlowTable(
		[]int64{100, 100, 200, 200, 200},
		[]float64{10, 20, 30, 40, 50})

	stats, err := Aggregate(tbl, []string{ColSizeByte}, ColFctNS,
		[]string{MetricCount, MetricMedian, MetricP90, MetricP99})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "100", stats[0].Group[ColSizeByte])
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 15.0, stats[0].Median)

	assert.Equal(t, "200", stats[1].Group[ColSizeByte])
	assert.Equal(t, 3, stats[1].Count)
	assert.Equal(t, 40.0, stats[1].Median)
}

func TestAggregateSortsNumerically(t *testing.T) {
	// sizes chosen so lexical ordering would put 1000 before 200
	tbl := buildFlowTable(
		[]int64{1000, 200, 30},
		[]float64{1, 2, 3})

	stats, err := Aggregate(tbl, []string{ColSizeByte}, ColFctNS, []string{MetricMedian})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "30", stats[0].Group[ColSizeByte])
	assert.Equal(t, "200", stats[1].Group[ColSizeByte])
	assert.Equal(t, "1000", stats[2].Group[ColSizeByte])
}

func TestAggregateEmptyTable(t *testing.T) {
	tbl := buildFlowTable(nil, nil)

	_, err := Aggregate(tbl, []string{ColSizeByte}, ColFctNS, []string{MetricMedian})
	require.Error(t, err)

	var empty *EmptyGroupError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, ColFctNS, empty.ValueColumn)
}

func TestAggregateRejectsUnknownMetric(t *testing.T) {
	tbl := buildFlowTable([]int64{100}, []float64{10})
	_, err := Aggregate(tbl, []string{ColSizeByte}, ColFctNS, []string{"p55"})
	assert.Error(t, err)
}

func TestAggregateMultiKey(t *testing.T) {
	tbl := CreateTable([]ColSpec{
		{Name: ColSrc, Kind: IntegerCol},
		{Name: ColDst, Kind: IntegerCol},
		{Name: ColFctNS, Kind: NumericCol},
	})
	pairs := [][2]int64{{1, 2}, {1, 2}, {1, 3}}
	for idx, pair := range pairs {
		tbl.appendInt(ColSrc, pair[0])
		tbl.appendInt(ColDst, pair[1])
		tbl.appendFloat(ColFctNS, float64(idx+1))
		tbl.finishRow()
	}

	stats, err := Aggregate(tbl, []string{ColSrc, ColDst}, ColFctNS, []string{MetricCount})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, "2", stats[0].Group[ColDst])
	assert.Equal(t, "3", stats[1].Group[ColDst])
}
