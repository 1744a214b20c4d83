package dispatch

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/model"
)

// NewLogHandler returns an HTTP handler exposing the audit trail via
// GET /api/dispatch/logs. Supported filters: run_id, start, end (RFC3339),
// severity and outcome. Malformed filters are rejected with 400.
func NewLogHandler(store logging.AuditStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.AuditRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (logging.AuditQuery, error) {
	v := r.URL.Query()
	q := logging.AuditQuery{RunID: v.Get("run_id")}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("severity"); s != "" {
		if q.Severity, err = model.ParseSeverity(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("outcome"); s != "" {
		q.Outcome = model.Outcome(strings.ToUpper(s))
	}
	return q, nil
}
