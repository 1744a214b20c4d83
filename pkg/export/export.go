// Package export writes dispatch runs in formats meant for people and
// spreadsheets: JSON, CSV and an HTML chart page.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var csvHeader = []string{"seq", "incident_id", "timestamp", "severity", "response", "resource", "cost", "deployment_time_minutes", "damage_cost"}

// WriteCSV writes the audit trail to w, one row per decision.
func WriteCSV(w io.Writer, records []model.DispatchRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, r := range records {
		row := []string{
			strconv.Itoa(i + 1),
			r.IncidentID,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Severity.String(),
			string(r.Outcome),
			r.Resource,
			formatFloat(r.Cost),
			formatFloat(r.DeploymentMinutes),
			formatFloat(r.DamageCost),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
