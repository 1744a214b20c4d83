package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kilianp07/wildfire/core/model"
)

// Record is the wire form of an uploaded incident. Timestamps are strings so
// that zone-less ISO-8601 values are accepted.
type Record struct {
	ID            string          `json:"id,omitempty"`
	Timestamp     string          `json:"timestamp"`
	FireStartTime string          `json:"fire_start_time"`
	Location      json.RawMessage `json:"location"`
	Severity      string          `json:"severity"`
}

// Incident converts the record, validating every field.
func (r Record) Incident() (model.Incident, error) {
	var inc model.Incident
	var err error
	inc.ID = r.ID
	if inc.OccurredAt, err = ParseTime(r.Timestamp); err != nil {
		return inc, fmt.Errorf("timestamp: %w", err)
	}
	if inc.ReportedAt, err = ParseTime(r.FireStartTime); err != nil {
		return inc, fmt.Errorf("fire_start_time: %w", err)
	}
	if inc.Location, err = parseRawLocation(r.Location); err != nil {
		return inc, err
	}
	if inc.Severity, err = model.ParseSeverity(r.Severity); err != nil {
		return inc, err
	}
	return inc, nil
}

func parseRawLocation(raw json.RawMessage) (model.Location, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return model.Location{}, fmt.Errorf("%w: missing location", model.ErrInvalidInput)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.Location{}, fmt.Errorf("%w: location: %v", model.ErrInvalidInput, err)
		}
		return ParseLocation(s)
	}
	var loc model.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return model.Location{}, err
	}
	return loc, nil
}

// Convert turns wire records into incidents, failing on the first bad one.
func Convert(records []Record) ([]model.Incident, error) {
	out := make([]model.Incident, 0, len(records))
	for i, r := range records {
		inc, err := r.Incident()
		if err != nil {
			return nil, fmt.Errorf("ingest: record %d: %w", i, err)
		}
		if inc.ID == "" {
			inc.ID = defaultID(i)
		}
		out = append(out, inc)
	}
	return out, nil
}

// ReadJSON parses a JSON array of records or an object {"events": [...]}.
func ReadJSON(r io.Reader) ([]model.Incident, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if data[0] == '{' {
		var wrapped struct {
			Events []Record `json:"events"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("ingest: %w: %v", model.ErrInvalidInput, err)
		}
		records = wrapped.Events
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("ingest: %w: %v", model.ErrInvalidInput, err)
	}
	return Convert(records)
}
