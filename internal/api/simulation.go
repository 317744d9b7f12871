/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Simulation API
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

	"banksight/internal/banking"
)

// LoadBalanceRequest is the request body for POST /api/simulation/load
type LoadBalanceRequest struct {
	CustomerID string `json:"customer_id"`
}

// TransactRequest is the request body for POST /api/simulation/transact
type TransactRequest struct {
	CustomerID string  `json:"customer_id"`
	Op         string  `json:"op"`
	Amount     float64 `json:"amount"`
}

// SimulationResponse is the JSON envelope for simulation endpoints. A
// rejected withdrawal answers with Success false and the unchanged balance.
type SimulationResponse struct {
	Success bool    `json:"success"`
	Balance float64 `json:"balance"`
	Error   string  `json:"error,omitempty"`
}

// SimulationHandler serves the balance simulation endpoints
type SimulationHandler struct {
	banking *banking.Service
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(b *banking.Service) *SimulationHandler {
	return &SimulationHandler{banking: b}
}

// HandleLoad handles POST /api/simulation/load
func (h *SimulationHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoadBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		http.Error(w, "customer_id is required", http.StatusBadRequest)
		return
	}

	balance, err := h.banking.LoadBalance(r.Context(), req.CustomerID)
	if err != nil {
		writeSimulationError(w, balance, err)
		return
	}
	writeSimulationResponse(w, SimulationResponse{Success: true, Balance: balance})
}

// HandleTransact handles POST /api/simulation/transact
func (h *SimulationHandler) HandleTransact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TransactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		http.Error(w, "customer_id is required", http.StatusBadRequest)
		return
	}

	balance, err := h.banking.Transact(r.Context(), req.CustomerID, banking.Operation(req.Op), req.Amount)
	if err != nil {
		writeSimulationError(w, balance, err)
		return
	}
	writeSimulationResponse(w, SimulationResponse{Success: true, Balance: balance})
}

// writeSimulationError distinguishes business rejections from hard failures:
// an insufficient balance is a 409 carrying the unchanged balance, a missing
// account is 404, a malformed request is 400
func writeSimulationError(w http.ResponseWriter, balance float64, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, banking.ErrInsufficientBalance):
		status = http.StatusConflict
	case errors.Is(err, banking.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, banking.ErrInvalidAmount):
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(SimulationResponse{Success: false, Balance: balance, Error: err.Error()})
}

func writeSimulationResponse(w http.ResponseWriter, resp SimulationResponse) {
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(resp)
}
