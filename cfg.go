package tracestat

// cfg.go holds the analysis configuration dictionary.  One AnalysisCfg
// describes a complete post-processing run: which trace files to read,
// the normalization constants, the comparison adjustments, and where
// the reports and plots go

import (
	"encoding/json"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// An AnalysisCfg carries every tunable of one analysis run
type AnalysisCfg struct {
	// Name identifies the experiment in reports and plot titles
	Name string `json:"name" yaml:"name"`

	// input trace files.  Empty entries disable the pipeline that
	// would consume them
	EventLog string `json:"eventlog" yaml:"eventlog"`
	Flows    string `json:"flows" yaml:"flows"`
	Control  string `json:"control" yaml:"control"`

	// event-start offsets (microseconds of sim_time) applied when
	// deriving the presumed visual start of an event
	BaseOffsetUS  float64 `json:"baseoffsetus" yaml:"baseoffsetus"`
	PacketExtraUS float64 `json:"packetextraus" yaml:"packetextraus"`

	// comparison adjustments: per-hop overhead removed from the
	// experiment completion times, and whether the control side is
	// rescaled by the payload-to-frame ratio
	HopOverheadNS float64 `json:"hopoverheadns" yaml:"hopoverheadns"`
	HopCount      int     `json:"hopcount" yaml:"hopcount"`
	ScaleControl  bool    `json:"scalecontrol" yaml:"scalecontrol"`

	// join-key rounding granularity for flow start timestamps, in ns
	RoundGranularityNS float64 `json:"roundgranularityns" yaml:"roundgranularityns"`

	// flows at or below this size are excluded from ratio aggregation
	MinFlowSizeByte int64 `json:"minflowsizebyte" yaml:"minflowsizebyte"`

	// timeline plot window: label of the rng stream drawing the
	// window position and the window span in microseconds of sim_time
	WindowStream string  `json:"windowstream" yaml:"windowstream"`
	WindowSpanUS float64 `json:"windowspanus" yaml:"windowspanus"`

	// outputs
	ReportFile string `json:"reportfile" yaml:"reportfile"`
	PlotDir    string `json:"plotdir" yaml:"plotdir"`
}

// CreateAnalysisCfg is a constructor.  It returns a configuration
// populated with the defaults the exploration scripts settled on;
// callers override fields before running
func CreateAnalysisCfg(name string) *AnalysisCfg {
	cfg := new(AnalysisCfg)
	cfg.Name = name
	cfg.BaseOffsetUS = 0.1
	cfg.PacketExtraUS = 1.5
	cfg.HopOverheadNS = 500.0
	cfg.HopCount = 4
	cfg.ScaleControl = true
	cfg.RoundGranularityNS = NSPerUS
	cfg.MinFlowSizeByte = MinRatioFlowSize
	cfg.WindowStream = "timelineWindow"
	cfg.WindowSpanUS = 100.0
	return cfg
}

// WriteToFile stores the AnalysisCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (cfg *AnalysisCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*cfg)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*cfg, "", "\t")
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

// ReadAnalysisCfg deserializes a byte slice holding a representation of an
// AnalysisCfg struct.  If the input argument of dict (those bytes) is empty,
// the file whose name is given is read to acquire them.  A deserialized
// representation is returned, or an error if one is generated from a file
// read or the deserialization
func ReadAnalysisCfg(filename string, useYAML bool, dict []byte) (*AnalysisCfg, error) {
	var err error

	// if the dict slice of bytes is empty we get them from the file whose name is an argument
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := AnalysisCfg{}

	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// ExperimentAdjustment builds the experiment-side completion-time
// adjustment the configuration calls for
func (cfg *AnalysisCfg) ExperimentAdjustment() Adjustment {
	if cfg.HopOverheadNS == 0 || cfg.HopCount == 0 {
		return nil
	}
	return HopOverheadAdjustment(cfg.HopOverheadNS, cfg.HopCount)
}

// ControlAdjustment builds the control-side completion-time adjustment
func (cfg *AnalysisCfg) ControlAdjustment() Adjustment {
	if !cfg.ScaleControl {
		return nil
	}
	return PayloadScaleAdjustment()
}

// CompareSpec assembles the comparison configuration for flow tables
// normalized by FlowNormSpec and ControlNormSpec
func (cfg *AnalysisCfg) CompareSpec() CompareSpec {
	return CompareSpec{
		JoinKeys:           []string{ColSrc, ColDst, ColSizeByte},
		StartColumn:        ColStartNS,
		RoundGranularityNS: cfg.RoundGranularityNS,
		FCTColumn:          ColFctNS,
		SizeColumn:         ColSizeByte,
		AdjustExperiment:   cfg.ExperimentAdjustment(),
		AdjustControl:      cfg.ControlAdjustment(),
	}
}
