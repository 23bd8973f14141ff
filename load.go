package tracestat

// load.go reads a delimited trace file into a Table under the control
// of an explicit TableSchema

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadTable reads the file whose name is given and parses it against
// the schema.  Lines are dropped according to the schema's Skip count
// and Comment prefix, an optional header line is checked against the
// schema's column names, and every remaining line must parse as one
// row of the declared column kinds.  Any disagreement between file and
// schema yields a SchemaMismatchError carrying the path and line number
func LoadTable(path string, schema *TableSchema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl := CreateTable(schema.Cols)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	lineNum := 0
	sawHeader := false

	for scanner.Scan() {
		lineNum += 1
		line := scanner.Text()

		// leading caption lines are not data
		if lineNum <= schema.Skip {
			continue
		}

		// trailing summary lines (e.g. "Util ...") are not data
		if len(schema.Comment) > 0 && strings.HasPrefix(line, schema.Comment) {
			continue
		}

		// skip blank lines
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		fields := splitFields(line, schema.Comma)

		if len(fields) != len(schema.Cols) {
			return nil, &SchemaMismatchError{Path: path, Line: lineNum,
				Detail: fmt.Sprintf("%s schema expects %d columns, line has %d",
					schema.Name, len(schema.Cols), len(fields))}
		}

		// the first retained line names the columns when the schema says so
		if schema.Header && !sawHeader {
			sawHeader = true
			for idx, col := range schema.Cols {
				if strings.TrimSpace(fields[idx]) != col.Name {
					return nil, &SchemaMismatchError{Path: path, Line: lineNum,
						Detail: fmt.Sprintf("header column %d is %q, %s schema expects %q",
							idx, fields[idx], schema.Name, col.Name)}
				}
			}
			continue
		}

		for idx, col := range schema.Cols {
			cell := strings.TrimSpace(fields[idx])
			switch col.Kind {
			case NumericCol:
				v, perr := strconv.ParseFloat(cell, 64)
				if perr != nil {
					return nil, &SchemaMismatchError{Path: path, Line: lineNum,
						Detail: fmt.Sprintf("column %s: %q is not numeric", col.Name, cell)}
				}
				tbl.appendFloat(col.Name, v)
			case IntegerCol:
				v, perr := strconv.ParseInt(cell, 10, 64)
				if perr != nil {
					return nil, &SchemaMismatchError{Path: path, Line: lineNum,
						Detail: fmt.Sprintf("column %s: %q is not an integer", col.Name, cell)}
				}
				tbl.appendInt(col.Name, v)
			case StringCol:
				tbl.appendStr(col.Name, cell)
			}
		}
		tbl.finishRow()
	}

	if serr := scanner.Err(); serr != nil {
		return nil, serr
	}

	if schema.Header && !sawHeader {
		return nil, &SchemaMismatchError{Path: path, Line: lineNum,
			Detail: fmt.Sprintf("%s schema expects a header line, file has no data lines", schema.Name)}
	}

	return tbl, nil
}

// splitFields breaks one line into cells.  A space delimiter selects
// whitespace-run splitting so that aligned columns parse cleanly
func splitFields(line string, comma rune) []string {
	if comma == ' ' {
		return strings.Fields(line)
	}
	if comma == 0 {
		comma = ','
	}
	return strings.Split(line, string(comma))
}
