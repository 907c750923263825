package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var resultsHeader = []string{"test", "label", "seconds"}

// UpdateCSV upserts the (test, label) row of the results file with the
// given mean seconds, creating the file with a header when absent.
func UpdateCSV(path, test, label string, seconds float64) error {
	rows, err := readResults(path)
	if err != nil {
		return err
	}

	value := strconv.FormatFloat(seconds, 'g', -1, 64)
	found := false
	for _, row := range rows {
		if len(row) >= 3 && row[0] == test && row[1] == label {
			row[2] = value
			found = true
			break
		}
	}
	if !found {
		rows = append(rows, []string{test, label, value})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultsHeader); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return nil
}

// readResults loads existing data rows, tolerating a missing file.
func readResults(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	if len(all) > 0 && len(all[0]) > 0 && all[0][0] == resultsHeader[0] {
		all = all[1:]
	}
	return all, nil
}
