// Package export writes raw run outcomes to tabular files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/studiowebux/surge/internal/loadgen"
)

// Header is the column layout of the raw results table. The column names and
// order are stable so downstream tooling can rely on them.
var Header = []string{"Status_Code", "Response_Time", "Error"}

// WriteOutcomes writes outcomes as CSV rows in settlement order. Absent
// values (status code of a failed request, error of a successful one) are
// written as empty cells. Response_Time is in seconds.
func WriteOutcomes(w io.Writer, outcomes []loadgen.Outcome) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, o := range outcomes {
		row := make([]string, 3)
		row[1] = strconv.FormatFloat(o.Duration.Seconds(), 'f', -1, 64)
		if o.Err != nil {
			row[2] = o.Err.Error()
		} else {
			row[0] = strconv.Itoa(o.StatusCode)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes outcomes to a CSV file at path.
func WriteFile(path string, outcomes []loadgen.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteOutcomes(f, outcomes); err != nil {
		return err
	}
	return f.Close()
}
