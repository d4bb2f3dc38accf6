package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxRequestBodyBytes = 1 << 20

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

type targetResponse struct {
	Label    string `json:"label"`
	Strategy string `json:"strategy"`
}

type graphqlRequest struct {
	Query string `json:"query"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTargets lists the served targets in configuration order.
func (s *server) handleTargets(w http.ResponseWriter, _ *http.Request) {
	resp := make([]targetResponse, 0, len(s.targets))

	for _, t := range s.targets {
		resp = append(resp, targetResponse{Label: t.Label, Strategy: t.Strategy})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGraphQL executes the posted query against the labeled target.
func (s *server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	target, ok := s.byLabel[label]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{"unknown target"})

		return
	}

	var req graphqlRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request body"})

		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{"query is required"})

		return
	}

	resp, err := target.Handle.Execute(r.Context(), req.Query)
	if err != nil {
		s.log.WithError(err).WithField("target", label).Warn("Query execution failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{"query execution failed"})

		return
	}

	writeJSON(w, http.StatusOK, resp)
}
