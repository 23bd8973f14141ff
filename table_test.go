package tracestat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAccessors(t *testing.T) {
	tbl := buildFlowTable([]int64{100, 200}, []float64{1.5, 2.5})

	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.HasCol(ColSizeByte))
	assert.False(t, tbl.HasCol("bogus"))

	kind, err := tbl.Kind(ColSizeByte)
	require.NoError(t, err)
	assert.Equal(t, IntegerCol, kind)

	_, err = tbl.Kind("bogus")
	assert.Error(t, err)
}

func TestNumericValuesWidensIntegers(t *testing.T) {
	tbl := buildFlowTable([]int64{100, 200}, []float64{1.5, 2.5})

	vals, err := tbl.NumericValues(ColSizeByte)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200}, vals)

	vals, err = tbl.NumericValues(ColFctNS)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, vals)

	_, err = tbl.NumericValues("bogus")
	assert.Error(t, err)
}

func TestCellStringRendersAllKinds(t *testing.T) {
	tbl := CreateTable(EventLogSchema().Cols)
	tbl.appendFloat(ColSimTime, 1234.5)
	tbl.appendFloat(ColTxTime, 1e6)
	tbl.appendFloat(ColRxTime, 2e6)
	tbl.appendInt(ColSrc, 7)
	tbl.appendInt(ColID, 9)
	tbl.appendStr(ColType, "packet")
	tbl.finishRow()

	cell, err := tbl.CellString(ColSimTime, 0)
	require.NoError(t, err)
	assert.Equal(t, "1234.5", cell)

	cell, err = tbl.CellString(ColSrc, 0)
	require.NoError(t, err)
	assert.Equal(t, "7", cell)

	cell, err = tbl.CellString(ColType, 0)
	require.NoError(t, err)
	assert.Equal(t, "packet", cell)
}

func TestRowView(t *testing.T) {
	tbl := buildFlowTable([]int64{100}, []float64{12.5})
	row := tbl.Row(0)

	assert.Equal(t, int64(100), row.Int(ColSizeByte))
	assert.Equal(t, 12.5, row.Float(ColFctNS))

	// integer columns widen through Float for derived-column functions
	assert.Equal(t, 100.0, row.Float(ColSizeByte))

	assert.Panics(t, func() { row.Float("bogus") })
}
