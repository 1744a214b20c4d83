// Package p1 serves the run endpoints under /api/p1.
package p1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/wildfire/core/ingest"
	"github.com/kilianp07/wildfire/core/logger"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/core/runner"
	"github.com/kilianp07/wildfire/infra/runstore"
)

// API holds the run handlers.
type API struct {
	log    logger.Logger
	runner *runner.Runner
	runs   runstore.Store
}

// New creates the handlers. runs may be nil, in which case the final report
// comes from the runner's last run.
func New(log logger.Logger, r *runner.Runner, runs runstore.Store) *API {
	if log == nil {
		log = logger.Nop{}
	}
	return &API{log: log, runner: r, runs: runs}
}

// RegisterRoutes attaches the endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/p1", func(r chi.Router) {
		r.Get("/get_system_state", a.handleSystemState)
		r.Get("/final_report", a.handleFinalReport)
		r.Post("/process_uploaded_data", a.handleProcessUpload)
		r.Post("/get_final_report", a.handleCustomReport)
	})
}

func (a *API) handleSystemState(w http.ResponseWriter, _ *http.Request) {
	out, ok := a.runner.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no run has completed")
		return
	}
	writeJSON(w, http.StatusOK, out.State)
}

func (a *API) handleFinalReport(w http.ResponseWriter, r *http.Request) {
	if a.runs != nil {
		run, err := a.runs.Latest(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, run.Report)
			return
		case !errors.Is(err, runstore.ErrNotFound):
			a.log.Errorf("final report: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	out, ok := a.runner.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no run has completed")
		return
	}
	writeJSON(w, http.StatusOK, out.Report)
}

func (a *API) handleProcessUpload(w http.ResponseWriter, r *http.Request) {
	incs, err := ingest.ReadJSON(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(incs) == 0 {
		writeError(w, http.StatusBadRequest, "no events provided")
		return
	}
	out, err := a.runner.Run(r.Context(), runner.Request{Incidents: incs})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"system_state": out.State,
		"final_report": out.Report,
	})
}

type customRequest struct {
	RawData           []ingest.Record           `json:"rawData"`
	CustomResources   map[string]resources.Spec `json:"customResources"`
	CustomDamageCosts map[string]float64        `json:"customDamageCosts"`
}

func (a *API) handleCustomReport(w http.ResponseWriter, r *http.Request) {
	var req customRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.RawData) == 0 {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	incs, err := ingest.Convert(req.RawData)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.runner.Run(r.Context(), runner.Request{
		Incidents:   incs,
		Resources:   req.CustomResources,
		DamageCosts: req.CustomDamageCosts,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out.Report)
}

func (a *API) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.log.Errorf("run failed: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
