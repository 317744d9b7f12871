/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Row CRUD API
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"banksight/internal/crud"
	"banksight/internal/store"
)

// RowRequest is the request body for the row mutation endpoints. Insert uses
// fields only; update uses key_value plus fields; delete uses key_value only.
type RowRequest struct {
	KeyValue string            `json:"key_value,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// RowResponse is the JSON envelope for row mutations
type RowResponse struct {
	Success   bool   `json:"success"`
	KeyColumn string `json:"key_column,omitempty"`
	Affected  int64  `json:"affected"`
	Error     string `json:"error,omitempty"`
}

// HandleRows handles POST, PUT, and DELETE on /api/tables/{name}/rows
func (h *TablesHandler) HandleRows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleInsert(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TablesHandler) handleInsert(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req RowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.crud.Insert(r.Context(), name, req.Fields); err != nil {
		writeRowError(w, err)
		return
	}
	writeRowResponse(w, RowResponse{Success: true, Affected: 1})
}

func (h *TablesHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req RowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.KeyValue == "" {
		http.Error(w, "key_value is required", http.StatusBadRequest)
		return
	}

	keyCol, affected, err := h.crud.Update(r.Context(), name, req.KeyValue, req.Fields)
	if err != nil {
		writeRowError(w, err)
		return
	}
	writeRowResponse(w, RowResponse{Success: true, KeyColumn: keyCol, Affected: affected})
}

func (h *TablesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req RowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.KeyValue == "" {
		http.Error(w, "key_value is required", http.StatusBadRequest)
		return
	}

	keyCol, affected, err := h.crud.Delete(r.Context(), name, req.KeyValue)
	if err != nil {
		writeRowError(w, err)
		return
	}
	writeRowResponse(w, RowResponse{Success: true, KeyColumn: keyCol, Affected: affected})
}

// writeRowError maps service errors onto status codes: unknown tables are
// 404, bad payloads are 400, everything else is an internal failure
func writeRowError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrUnknownTable):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrUnknownColumn), errors.Is(err, crud.ErrNoFields):
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(RowResponse{Success: false, Error: err.Error()})
}

func writeRowResponse(w http.ResponseWriter, resp RowResponse) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(resp)
}
