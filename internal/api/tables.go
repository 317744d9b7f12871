/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Table API
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
	"fmt"
	"net/http"
	"strconv"
	"time"

	"banksight/internal/crud"
	"banksight/internal/export"
	"banksight/internal/filter"
	"banksight/internal/logging"
	"banksight/internal/schema"
	"banksight/internal/store"
)

const dateLayout = "2006-01-02"

// ColumnDescriptor describes one column of a persisted table
type ColumnDescriptor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableSummary is one entry of the table listing
type TableSummary struct {
	Name      string             `json:"name"`
	KeyColumn string             `json:"key_column,omitempty"`
	Columns   []ColumnDescriptor `json:"columns"`
}

// ListTablesResponse is the response for GET /api/tables
type ListTablesResponse struct {
	Tables []TableSummary `json:"tables"`
}

// ColumnFacet describes the filter domain of one column: its kind plus the
// bounds or candidate values a client needs to build a predicate
type ColumnFacet struct {
	Column     string   `json:"column"`
	Kind       string   `json:"kind"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	Selected   []string `json:"selected,omitempty"`
}

// TableDataResponse carries rows of a table or a filtered view of it
type TableDataResponse struct {
	Table     string          `json:"table"`
	KeyColumn string          `json:"key_column,omitempty"`
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Facets    []ColumnFacet   `json:"facets,omitempty"`
}

// PredicateSpec is one column constraint of a filter request. Kind selects
// which fields apply: numeric uses low/high, date uses start/end
// (YYYY-MM-DD), categorical uses values.
type PredicateSpec struct {
	Column string   `json:"column"`
	Kind   string   `json:"kind"`
	Low    *float64 `json:"low,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Start  string   `json:"start,omitempty"`
	End    string   `json:"end,omitempty"`
	Values []string `json:"values,omitempty"`
}

// FilterRequest is the request body for POST /api/tables/{name}/filter
type FilterRequest struct {
	Predicates []PredicateSpec `json:"predicates"`
	Limit      int             `json:"limit,omitempty"`
}

// TablesHandler serves table listing, browsing, filtering, CRUD, and export
type TablesHandler struct {
	store       *store.Store
	crud        *crud.Service
	browseLimit int
	exportLimit int
}

// NewTablesHandler creates a new tables handler
func NewTablesHandler(s *store.Store, c *crud.Service, browseLimit, exportLimit int) *TablesHandler {
	return &TablesHandler{
		store:       s,
		crud:        c,
		browseLimit: browseLimit,
		exportLimit: exportLimit,
	}
}

// HandleListTables handles GET /api/tables
func (h *TablesHandler) HandleListTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	names, err := h.store.TableNames(ctx)
	if err != nil {
		serverError(w, "list tables", err)
		return
	}

	tables := make([]TableSummary, 0, len(names))
	for _, name := range names {
		info, err := h.store.Describe(ctx, name)
		if err != nil {
			serverError(w, "describe table", err)
			return
		}

		cols := make([]ColumnDescriptor, 0, len(info.Columns))
		for _, c := range info.Columns {
			cols = append(cols, ColumnDescriptor{
				Name:       c.Name,
				Type:       c.DeclaredType,
				NotNull:    c.NotNull,
				PrimaryKey: c.PrimaryKey,
			})
		}

		// A table with no resolvable key is still listable
		key, _ := schema.ResolveKey(info.Columns)
		tables = append(tables, TableSummary{Name: name, KeyColumn: key, Columns: cols})
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(ListTablesResponse{Tables: tables})
}

// HandleTable handles GET /api/tables/{name}
func (h *TablesHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	name := r.PathValue("name")

	info, err := h.store.Describe(ctx, name)
	if errors.Is(err, store.ErrUnknownTable) {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, "describe table", err)
		return
	}

	limit := h.browseLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if n < limit {
			limit = n
		}
	}

	res, err := h.crud.Browse(ctx, name, limit)
	if err != nil {
		serverError(w, "browse table", err)
		return
	}

	key, _ := schema.ResolveKey(info.Columns)
	resp := TableDataResponse{
		Table:     name,
		KeyColumn: key,
		Columns:   res.Columns,
		Rows:      res.Rows,
		RowCount:  res.RowCount(),
		Facets:    buildFacets(info, res),
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(resp)
}

// HandleFilter handles POST /api/tables/{name}/filter
func (h *TablesHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	name := r.PathValue("name")

	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	info, err := h.store.Describe(ctx, name)
	if errors.Is(err, store.ErrUnknownTable) {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, "describe table", err)
		return
	}

	predicates, err := buildPredicates(info, req.Predicates)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := h.browseLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	res, err := h.crud.Browse(ctx, name, limit)
	if err != nil {
		serverError(w, "browse table", err)
		return
	}

	filtered := filter.Apply(res, predicates)
	resp := TableDataResponse{
		Table:    name,
		Columns:  filtered.Columns,
		Rows:     filtered.Rows,
		RowCount: filtered.RowCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // Error would only occur if connection is closed
	json.NewEncoder(w).Encode(resp)
}

// HandleExport handles GET /api/tables/{name}/export
func (h *TablesHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	name := r.PathValue("name")

	if _, err := h.store.Describe(ctx, name); err != nil {
		if errors.Is(err, store.ErrUnknownTable) {
			http.Error(w, "Table not found", http.StatusNotFound)
			return
		}
		serverError(w, "describe table", err)
		return
	}

	res, err := h.store.ReadTable(ctx, name, h.exportLimit)
	if err != nil {
		serverError(w, "read table", err)
		return
	}

	writeCSVAttachment(w, name, res)
}

// buildFacets classifies each column and derives the bounds or candidate
// values a client needs to compose predicates. Degenerate domains (all-null
// columns) fall back the same way the bound helpers do.
func buildFacets(info schema.TableInfo, res store.Result) []ColumnFacet {
	facets := make([]ColumnFacet, 0, len(info.Columns))
	for _, col := range info.Columns {
		values := filter.ColumnValues(res, col.Name)
		facet := ColumnFacet{Column: col.Name}

		switch schema.Classify(col, values) {
		case schema.KindNumeric:
			facet.Kind = schema.KindNumeric.String()
			low, high := filter.NumericBounds(values)
			facet.Min = &low
			facet.Max = &high
		case schema.KindTemporal:
			facet.Kind = schema.KindTemporal.String()
			start, end := filter.DateBounds(values)
			facet.Start = start.Format(dateLayout)
			facet.End = end.Format(dateLayout)
		default:
			facet.Kind = schema.KindCategorical.String()
			facet.Candidates = filter.Candidates(values)
			facet.Selected = filter.DefaultSelection(facet.Candidates)
		}
		facets = append(facets, facet)
	}
	return facets
}

// buildPredicates validates predicate specs against the table descriptor and
// converts them to filter predicates
func buildPredicates(info schema.TableInfo, specs []PredicateSpec) ([]filter.Predicate, error) {
	predicates := make([]filter.Predicate, 0, len(specs))
	for _, spec := range specs {
		if !info.HasColumn(spec.Column) {
			return nil, fmt.Errorf("unknown column: %s", spec.Column)
		}

		switch spec.Kind {
		case "numeric":
			if spec.Low == nil || spec.High == nil {
				return nil, fmt.Errorf("numeric predicate on %s needs low and high", spec.Column)
			}
			predicates = append(predicates, filter.NumericRange{Col: spec.Column, Low: *spec.Low, High: *spec.High})
		case "date", "temporal":
			start, err := time.Parse(dateLayout, spec.Start)
			if err != nil {
				return nil, fmt.Errorf("invalid start date %q on %s", spec.Start, spec.Column)
			}
			end, err := time.Parse(dateLayout, spec.End)
			if err != nil {
				return nil, fmt.Errorf("invalid end date %q on %s", spec.End, spec.Column)
			}
			predicates = append(predicates, filter.DateRange{Col: spec.Column, Start: start, End: end})
		case "category", "categorical":
			predicates = append(predicates, filter.NewCategorySet(spec.Column, spec.Values))
		default:
			return nil, fmt.Errorf("unknown predicate kind: %s", spec.Kind)
		}
	}
	return predicates, nil
}

// writeCSVAttachment streams a result as a CSV download
func writeCSVAttachment(w http.ResponseWriter, base string, res store.Result) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(base)))
	if err := export.WriteCSV(w, res); err != nil {
		// Headers are gone by now; log and give up on this response
		logging.Error("csv export failed", "name", base, "error", err.Error())
	}
}

// serverError logs an internal failure and answers 500
func serverError(w http.ResponseWriter, action string, err error) {
	logging.Error("request failed", "action", action, "error", err.Error())
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
