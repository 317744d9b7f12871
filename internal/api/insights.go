/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Insights API
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"

	"banksight/internal/insights"
	"banksight/internal/store"
)

// ListInsightsResponse is the response for GET /api/insights
type ListInsightsResponse struct {
	Insights []insights.Insight `json:"insights"`
}

// InsightResponse is the response for GET /api/insights/{id}
type InsightResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
}

// InsightsHandler serves the analytical query catalog
type InsightsHandler struct {
	store *store.Store
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(s *store.Store) *InsightsHandler {
	return &InsightsHandler{store: s}
}

// HandleList handles GET /api/insights
func (h *InsightsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(ListInsightsResponse{Insights: insights.Catalog})
}

// HandleInsight handles GET /api/insights/{id}
func (h *InsightsHandler) HandleInsight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	ins, ok := insights.Find(id)
	if !ok {
		http.Error(w, "Insight not found", http.StatusNotFound)
		return
	}

	res, err := insights.Run(r.Context(), h.store, id)
	if err != nil {
		serverError(w, "run insight", err)
		return
	}

	resp := InsightResponse{
		ID:       ins.ID,
		Name:     ins.Name,
		Columns:  res.Columns,
		Rows:     res.Rows,
		RowCount: res.RowCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(resp)
}

// HandleExport handles GET /api/insights/{id}/export
func (h *InsightsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if _, ok := insights.Find(id); !ok {
		http.Error(w, "Insight not found", http.StatusNotFound)
		return
	}

	res, err := insights.Run(r.Context(), h.store, id)
	if err != nil {
		serverError(w, "run insight", err)
		return
	}

	writeCSVAttachment(w, id, res)
}
