// Package ingest loads incident files. Loading is fail-fast: the first
// malformed record rejects the whole file so a run never starts on partial
// input.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// timeLayouts are tried in order. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts ISO-8601 timestamps with or without a zone offset.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", model.ErrInvalidInput)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", model.ErrInvalidInput, s)
}

// ParseLocation reads "(lat, lon)", "[lat, lon]" or "lat,lon".
func ParseLocation(s string) (model.Location, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "("), "[")
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, ")"), "]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return model.Location{}, fmt.Errorf("%w: location %q needs two components", model.ErrInvalidInput, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("%w: location %q: %v", model.ErrInvalidInput, s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("%w: location %q: %v", model.ErrInvalidInput, s, err)
	}
	return model.Location{Lat: lat, Lon: lon}, nil
}

// LoadFile reads a .csv or .json incident file.
func LoadFile(path string) ([]model.Incident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("ingest: unsupported file type %s", filepath.Ext(path))
	}
}

func defaultID(i int) string { return fmt.Sprintf("evt-%04d", i+1) }
