package main

// tracestat loads an experiment's trace files, computes per-size
// completion-time statistics, compares the run against a reference
// simulator's output when one is supplied, and writes reports and plots

import (
	"path"

	"github.com/iti/cmdline"
	"github.com/netsim-tools/tracestat"
	log "github.com/sirupsen/logrus"
)

// cmdlineParameters define variables that may appear on the command line
func cmdlineParameters() *cmdline.CmdParser {
	// create an argument parser
	cp := cmdline.NewCmdParser()
	cp.AddFlag(cmdline.StringFlag, "cfg", true)       // analysis configuration file (.yaml or .json)
	cp.AddFlag(cmdline.StringFlag, "eventLog", false) // override for the event trace path
	cp.AddFlag(cmdline.StringFlag, "flows", false)    // override for the flow records path
	cp.AddFlag(cmdline.StringFlag, "control", false)  // override for the control trace path
	cp.AddFlag(cmdline.StringFlag, "report", false)   // override for the report output path
	cp.AddFlag(cmdline.StringFlag, "plotDir", false)  // override for the plot output directory

	return cp
}

func main() {
	// configure command line variables that will be recognized
	cp := cmdlineParameters()

	// parse the command line
	cp.Parse()

	cfgFile := cp.GetVar("cfg").(string)
	ext := path.Ext(cfgFile)
	useYAML := ext == ".yaml" || ext == ".yml" || ext == ".YAML"

	cfg, err := tracestat.ReadAnalysisCfg(cfgFile, useYAML, []byte{})
	if err != nil {
		log.Fatalf("cannot read configuration %s: %s", cfgFile, err)
	}

	// command line overrides of configured paths
	if cp.IsLoaded("eventLog") {
		cfg.EventLog = cp.GetVar("eventLog").(string)
	}
	if cp.IsLoaded("flows") {
		cfg.Flows = cp.GetVar("flows").(string)
	}
	if cp.IsLoaded("control") {
		cfg.Control = cp.GetVar("control").(string)
	}
	if cp.IsLoaded("report") {
		cfg.ReportFile = cp.GetVar("report").(string)
	}
	if cp.IsLoaded("plotDir") {
		cfg.PlotDir = cp.GetVar("plotDir").(string)
	}

	out, err := tracestat.Run(cfg)
	if err != nil {
		log.Fatalf("analysis %s failed: %s", cfg.Name, err)
	}

	if len(cfg.ReportFile) > 0 {
		if werr := out.Report.WriteToFile(cfg.ReportFile); werr != nil {
			log.Fatalf("cannot write report %s: %s", cfg.ReportFile, werr)
		}
		log.Infof("report written to %s", cfg.ReportFile)
	}

	if rerr := tracestat.RenderAll(cfg, out); rerr != nil {
		log.Fatalf("plot rendering failed: %s", rerr)
	}

	log.Infof("analysis %s complete", cfg.Name)
}
