package tracestat

// records.go binds the generic loader and normalizer to the three
// trace formats the simulator toolchain produces: the event trace
// (out.log), the flow-completion records (flows.csv), and the
// reference simulator's flow dump used as the comparison control

// unit and framing constants of the simulated network
const (
	// NSPerUS and NSPerMS convert the logs' nanosecond timestamps
	NSPerUS = 1000.0
	NSPerMS = 1e6

	// BytesPerPacket is the on-wire frame size; PayloadPerPacket is
	// the payload share of a full frame
	BytesPerPacket   = 1500
	PayloadPerPacket = 1436

	// EventTypePacket is the event-trace type tag of packet model events
	EventTypePacket = "packet"
)

// column names shared by the flow schemas after normalization
const (
	ColSimTime  = "sim_time"
	ColTxTime   = "tx_time"
	ColRxTime   = "rx_time"
	ColSrc      = "src"
	ColDst      = "dst"
	ColID       = "id"
	ColType     = "type"
	ColStart    = "start"
	ColEnd      = "end"
	ColSizeByte = "size_byte"
	ColFctNS    = "fct_ns"
	ColFctMS    = "fct_ms"
	ColStartMS  = "start_ms"
	ColStartNS  = "start_ns"
)

// EventLogSchema describes out.log: one line per simulated event,
// comma-delimited with a header row.  Timestamps are nanoseconds
func EventLogSchema() *TableSchema {
	return &TableSchema{
		Name:   "eventlog",
		Comma:  ',',
		Header: true,
		Cols: []ColSpec{
			{Name: ColSimTime, Kind: NumericCol},
			{Name: ColTxTime, Kind: NumericCol},
			{Name: ColRxTime, Kind: NumericCol},
			{Name: ColSrc, Kind: IntegerCol},
			{Name: ColID, Kind: IntegerCol},
			{Name: ColType, Kind: StringCol},
		},
	}
}

// FlowSchema describes flows.csv, whose header the simulator writes as
// src,dst,start,end,size_byte,fct_ns
func FlowSchema() *TableSchema {
	return &TableSchema{
		Name:   "flows",
		Comma:  ',',
		Header: true,
		Cols: []ColSpec{
			{Name: ColSrc, Kind: IntegerCol},
			{Name: ColDst, Kind: IntegerCol},
			{Name: ColStart, Kind: NumericCol},
			{Name: ColEnd, Kind: NumericCol},
			{Name: ColSizeByte, Kind: IntegerCol},
			{Name: ColFctNS, Kind: NumericCol},
		},
	}
}

// ControlSchema describes the reference simulator's flow dump:
// space-delimited, no header, a caption line first and trailing
// "Util" summary lines, with millisecond time columns
func ControlSchema() *TableSchema {
	return &TableSchema{
		Name:    "control",
		Comma:   ' ',
		Skip:    1,
		Comment: "Util",
		Cols: []ColSpec{
			{Name: ColType, Kind: StringCol},
			{Name: ColSrc, Kind: IntegerCol},
			{Name: ColDst, Kind: IntegerCol},
			{Name: ColSizeByte, Kind: IntegerCol},
			{Name: ColFctMS, Kind: NumericCol},
			{Name: ColStartMS, Kind: NumericCol},
		},
	}
}

// EventNormSpec builds the normalization pass for the event trace:
// sim_time to microseconds, wall-clock send/receive times to
// milliseconds, zero receive times dropped as not-yet-arrived, and a
// presumed visual start offset derived per event.  Packet model events
// get a further offset covering their serialization lead-in; both
// offsets are in microseconds of sim_time
func EventNormSpec(baseOffsetUS, packetExtraUS float64) NormSpec {
	return NormSpec{
		UnitConversions: map[string]float64{
			ColSimTime: NSPerUS,
			ColTxTime:  NSPerMS,
			ColRxTime:  NSPerMS,
		},
		Sentinel: &SentinelFilter{Column: ColRxTime, Sentinel: 0},
		Derived: []DerivedColumn{
			{Name: ColStart, Fn: func(r Row) float64 {
				start := r.Float(ColSimTime) - baseOffsetUS
				if r.Str(ColType) == EventTypePacket {
					start -= packetExtraUS
				}
				return start
			}},
		},
	}
}

// FlowNormSpec derives the flow start timestamp from the completion
// timestamp and the completion time, both nanoseconds.  The derived
// column rather than the file's own start field feeds the comparison
// join, so both sides of a comparison build their key the same way
func FlowNormSpec() NormSpec {
	return NormSpec{
		Derived: []DerivedColumn{
			{Name: ColStartNS, Fn: func(r Row) float64 {
				return r.Float(ColEnd) - r.Float(ColFctNS)
			}},
		},
	}
}

// ControlNormSpec converts the reference simulator's millisecond
// columns into the nanosecond columns the comparison expects
func ControlNormSpec() NormSpec {
	return NormSpec{
		Derived: []DerivedColumn{
			{Name: ColFctNS, Fn: func(r Row) float64 {
				return r.Float(ColFctMS) * NSPerMS
			}},
			{Name: ColStartNS, Fn: func(r Row) float64 {
				return r.Float(ColStartMS) * NSPerMS
			}},
		},
	}
}

// HopOverheadAdjustment subtracts a fixed per-hop serialization and
// processing overhead from an experiment completion time
func HopOverheadAdjustment(overheadNS float64, hops int) Adjustment {
	total := overheadNS * float64(hops)
	return func(fctNS float64) float64 {
		return fctNS - total
	}
}

// PayloadScaleAdjustment rescales a control completion time by the
// payload-to-frame ratio, normalizing a control simulator that
// accounts sizes in payload bytes against one that accounts full frames
func PayloadScaleAdjustment() Adjustment {
	scale := float64(PayloadPerPacket) / float64(BytesPerPacket)
	return func(fctNS float64) float64 {
		return fctNS * scale
	}
}

// MinRatioFlowSize is the default ratio-aggregation cutoff: flows of
// two packets or fewer ride the fixed latency floor and carry no
// signal about the ratio under study
const MinRatioFlowSize = 2 * BytesPerPacket
