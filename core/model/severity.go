package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity classifies an incident. The zero value is not a valid severity.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

// Severities lists every valid severity in ascending priority.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Priority returns the dispatch rank of s. Higher ranks are decided first
// when incidents share a timestamp. Unknown values rank 0.
func (s Severity) Priority() int { return severityRank[s] }

// Valid reports whether s belongs to the closed severity set.
func (s Severity) Valid() bool { return severityRank[s] > 0 }

// String returns the lower-case wire token.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a case-insensitive token into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return 0, fmt.Errorf("%w: %w %q", ErrInvalidInput, ErrUnknownSeverity, s)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %w %d", ErrInvalidInput, ErrUnknownSeverity, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SeverityCounts holds one counter per severity and serializes as
// {"low":n,"medium":n,"high":n}.
type SeverityCounts map[Severity]int

// NewSeverityCounts returns counts initialised to zero for every severity.
func NewSeverityCounts() SeverityCounts {
	c := make(SeverityCounts, len(Severities))
	for _, s := range Severities {
		c[s] = 0
	}
	return c
}

// Total sums the counters.
func (c SeverityCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Clone returns an independent copy.
func (c SeverityCounts) Clone() SeverityCounts {
	out := make(SeverityCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c SeverityCounts) MarshalJSON() ([]byte, error) {
	out := struct {
		Low    int `json:"low"`
		Medium int `json:"medium"`
		High   int `json:"high"`
	}{c[SeverityLow], c[SeverityMedium], c[SeverityHigh]}
	return json.Marshal(out)
}

func (c *SeverityCounts) UnmarshalJSON(b []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := NewSeverityCounts()
	for k, v := range raw {
		s, err := ParseSeverity(k)
		if err != nil {
			return err
		}
		out[s] = v
	}
	*c = out
	return nil
}
