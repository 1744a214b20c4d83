package simulator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilianp07/wildfire/core/model"
)

// WriteJSON writes incidents as an {"events": [...]} upload document.
func WriteJSON(w io.Writer, incidents []model.Incident) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Events []model.Incident `json:"events"`
	}{incidents})
}

// WriteCSV writes incidents with the columns the CSV loader expects.
func WriteCSV(w io.Writer, incidents []model.Incident) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "timestamp", "fire_start_time", "location", "severity"}); err != nil {
		return err
	}
	for _, inc := range incidents {
		row := []string{
			inc.ID,
			inc.OccurredAt.Format(time.RFC3339),
			inc.ReportedAt.Format(time.RFC3339),
			fmt.Sprintf("(%g, %g)", inc.Location.Lat, inc.Location.Lon),
			inc.Severity.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile picks the format from the file extension.
func WriteFile(path string, incidents []model.Incident) (err error) {
	var write func(io.Writer, []model.Incident) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".json":
		write = WriteJSON
	default:
		return fmt.Errorf("simulator: unsupported file type %q", filepath.Ext(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, incidents)
}
