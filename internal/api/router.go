/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Router
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

	"banksight/internal/banking"
	"banksight/internal/crud"
	"banksight/internal/store"
)

// Options carries the row caps applied by the read endpoints
type Options struct {
	BrowseLimit int
	ExportLimit int
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// NewMux wires every endpoint onto a ServeMux
func NewMux(s *store.Store, c *crud.Service, b *banking.Service, opts Options) *http.ServeMux {
	tables := NewTablesHandler(s, c, opts.BrowseLimit, opts.ExportLimit)
	ins := NewInsightsHandler(s)
	sim := NewSimulationHandler(b)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/tables", tables.HandleListTables)
	mux.HandleFunc("/api/tables/{name}", tables.HandleTable)
	mux.HandleFunc("/api/tables/{name}/export", tables.HandleExport)
	mux.HandleFunc("/api/tables/{name}/filter", tables.HandleFilter)
	mux.HandleFunc("/api/tables/{name}/rows", tables.HandleRows)
	mux.HandleFunc("/api/insights", ins.HandleList)
	mux.HandleFunc("/api/insights/{id}", ins.HandleInsight)
	mux.HandleFunc("/api/insights/{id}/export", ins.HandleExport)
	mux.HandleFunc("/api/simulation/load", sim.HandleLoad)
	mux.HandleFunc("/api/simulation/transact", sim.HandleTransact)
	return mux
}

// handleHealth handles GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}
