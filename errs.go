package tracestat

// errs.go declares the error types raised by the pipeline stages and
// carries the file-system probes used before a run starts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A SchemaMismatchError reports that an input file's columns or cell
// types do not match the schema it was loaded against.  It is fatal:
// the run aborts rather than guessing at a column alignment
type SchemaMismatchError struct {
	Path   string
	Line   int
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s:%d: schema mismatch: %s", e.Path, e.Line, e.Detail)
}

// A SentinelFilterExhaustionError reports that the sentinel filter
// removed every row of a table.  The (empty) table is still returned
// alongside it so a caller running several independent pipelines can
// report the condition and continue
type SentinelFilterExhaustionError struct {
	Column   string
	Sentinel float64
	Examined int
}

func (e *SentinelFilterExhaustionError) Error() string {
	return fmt.Sprintf("sentinel filter %s == %g removed all %d rows", e.Column, e.Sentinel, e.Examined)
}

// An EmptyGroupError reports that aggregation was requested on a
// zero-row table.  Fatal for that aggregation only
type EmptyGroupError struct {
	ValueColumn string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("aggregation of %s requested on empty table", e.ValueColumn)
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated report of all the constituent errors, and returns it.
func ReportErrs(errs []error) error {
	err_msg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			err_msg = append(err_msg, err.Error())
		}
	}
	if len(err_msg) == 0 {
		return nil
	}

	return errors.New(strings.Join(err_msg, ","))
}

// CheckDirectories probes the file system for the existence
// of every directory listed in the list of files.  Returns a boolean
// indicating whether all dirs are valid, and returns an aggregated error
// if any checks failed.
func CheckDirectories(dirs []string) (bool, error) {
	failures := []string{}

	// for every offered (non-empty) directory
	for _, dir := range dirs {
		if len(dir) == 0 {
			continue
		}

		// a file extension means the name is a path to a file, not a directory
		ext := filepath.Ext(dir)
		if ext != "" {
			failures = append(failures, fmt.Sprintf("%s not a directory", dir))

			continue
		}

		if _, err := os.Stat(dir); err != nil {
			failures = append(failures, fmt.Sprintf("%s not reachable", dir))

			continue
		}
	}
	if len(failures) == 0 {
		return true, nil
	}

	err := errors.New(strings.Join(failures, ","))

	return false, err
}

// CheckReadableFiles probes the file system to ensure that every
// one of the argument filenames exists and is readable
func CheckReadableFiles(names []string) (bool, error) {
	return CheckFiles(names, true)
}

// CheckOutputFiles probes the file system to ensure that every
// argument filename can be written.
func CheckOutputFiles(names []string) (bool, error) {
	return CheckFiles(names, false)
}

// CheckFiles probes the file system for permitted access to all the
// argument filenames, optionally checking also for the existence
// of those files for the purposes of reading them.
func CheckFiles(names []string, checkExistence bool) (bool, error) {
	// make sure that the directory of each named file exists
	errs := make([]error, 0)

	for _, name := range names {

		// skip empty entries
		if len(name) == 0 || name == "/tmp" {
			continue
		}

		// split off the directory portion of the path
		directory, _ := filepath.Split(name)
		if len(directory) == 0 {
			continue
		}
		if _, err := os.Stat(directory); err != nil {
			errs = append(errs, err)
		}
	}

	// if required, check for the reachability and existence of each file
	if checkExistence {
		for _, name := range names {
			if _, err := os.Stat(name); err != nil {
				errs = append(errs, err)
			}
		}

		if len(errs) == 0 {
			return true, nil
		}

		rtnerr := ReportErrs(errs)
		return false, rtnerr
	}

	return true, nil
}
