// Package predict serves fire risk forecasts.
package predict

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/wildfire/core/logger"
	"github.com/kilianp07/wildfire/core/prediction"
)

// API wraps a predictor.
type API struct {
	log       logger.Logger
	predictor prediction.Predictor
	threshold float64
}

// New creates the handler. A nil predictor behaves as an unloaded model.
func New(log logger.Logger, p prediction.Predictor, threshold float64) *API {
	if log == nil {
		log = logger.Nop{}
	}
	if p == nil {
		p = prediction.Unloaded{}
	}
	if threshold <= 0 {
		threshold = prediction.DefaultThreshold
	}
	return &API{log: log, predictor: p, threshold: threshold}
}

// RegisterRoutes attaches POST /api/predict.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/api/predict", a.handlePredict)
}

// Response is the forecast document.
type Response struct {
	Predictions map[string][]prediction.Entry `json:"predictions"`
	Count       int                           `json:"count"`
	Threshold   float64                       `json:"threshold"`
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req prediction.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cands, err := a.predictor.Predict(r.Context(), req)
	if err != nil {
		if !errors.Is(err, prediction.ErrModelNotLoaded) {
			a.log.Errorf("predict: %v", err)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	grouped := prediction.GroupByDate(cands, a.threshold)
	n := 0
	for _, g := range grouped {
		n += len(g)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{Predictions: grouped, Count: n, Threshold: a.threshold})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
