package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Location is a latitude/longitude pair. It serializes as a two element array.
type Location struct {
	Lat float64
	Lon float64
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{l.Lat, l.Lon})
}

// UnmarshalJSON accepts [lat, lon] or {"latitude":..,"longitude":..}.
func (l *Location) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("%w: location needs 2 components, got %d", ErrInvalidInput, len(pair))
		}
		l.Lat, l.Lon = pair[0], pair[1]
		return nil
	}
	var obj struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("%w: location: %v", ErrInvalidInput, err)
	}
	if obj.Latitude == nil || obj.Longitude == nil {
		return fmt.Errorf("%w: location requires latitude and longitude", ErrInvalidInput)
	}
	l.Lat, l.Lon = *obj.Latitude, *obj.Longitude
	return nil
}

func (l Location) String() string { return fmt.Sprintf("(%g, %g)", l.Lat, l.Lon) }

// Incident is a reported fire awaiting a dispatch decision.
//
// Handled and AssignedResource are written only by the dispatch engine:
// Handled is true iff AssignedResource names a unit committed for this
// incident.
type Incident struct {
	ID               string    `json:"id,omitempty"`
	OccurredAt       time.Time `json:"timestamp"`
	ReportedAt       time.Time `json:"fire_start_time"`
	Location         Location  `json:"location"`
	Severity         Severity  `json:"severity"`
	Handled          bool      `json:"handled"`
	AssignedResource *string   `json:"assigned_resource"`
}

// Validate checks the fields every incident must carry.
func (i Incident) Validate() error {
	if i.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidInput)
	}
	if i.ReportedAt.IsZero() {
		return fmt.Errorf("%w: missing fire_start_time", ErrInvalidInput)
	}
	if !i.Severity.Valid() {
		return fmt.Errorf("%w: %w %d", ErrInvalidInput, ErrUnknownSeverity, int(i.Severity))
	}
	return nil
}

// Assigned returns the committed resource name, or "" when none.
func (i Incident) Assigned() string {
	if i.AssignedResource == nil {
		return ""
	}
	return *i.AssignedResource
}
