package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/wildfire/core/model"
)

var requiredColumns = []string{"timestamp", "fire_start_time", "location", "severity"}

// ReadCSV parses incidents from a CSV stream with a header row. Columns are
// matched by name, case-insensitively; an optional "id" column is honoured.
func ReadCSV(r io.Reader) ([]model.Incident, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("ingest: %w: missing column %q", model.ErrInvalidInput, name)
		}
	}
	var out []model.Incident
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: csv line %d: %w", line, err)
		}
		inc, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("ingest: csv line %d: %w", line, err)
		}
		if inc.ID == "" {
			inc.ID = defaultID(len(out))
		}
		out = append(out, inc)
	}
	return out, nil
}

func parseRow(row []string, col map[string]int) (model.Incident, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	var inc model.Incident
	var err error
	inc.ID = strings.TrimSpace(field("id"))
	if inc.OccurredAt, err = ParseTime(field("timestamp")); err != nil {
		return inc, fmt.Errorf("timestamp: %w", err)
	}
	if inc.ReportedAt, err = ParseTime(field("fire_start_time")); err != nil {
		return inc, fmt.Errorf("fire_start_time: %w", err)
	}
	if inc.Location, err = ParseLocation(field("location")); err != nil {
		return inc, err
	}
	if inc.Severity, err = model.ParseSeverity(field("severity")); err != nil {
		return inc, err
	}
	return inc, nil
}
