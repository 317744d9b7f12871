/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Multi-Column Filter Composition
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package filter

import (
	"fmt"
	"time"

	"banksight/internal/schema"
	"banksight/internal/store"
)

const (
	// MaxCandidates caps the distinct values offered for a categorical
	// column. Values beyond the first 200 observed are simply not offered.
	MaxCandidates = 200

	// DefaultSelectionSize is how many candidates are pre-selected when the
	// user has not chosen yet. Showing a pre-filtered view is intentional.
	DefaultSelectionSize = 5
)

// Predicate is a per-column row test. A dataset filter is the conjunction of
// all active predicates; a column with no predicate imposes no constraint.
type Predicate interface {
	Column() string
	Matches(value interface{}) bool
}

// NumericRange passes rows whose value lies in [Low, High] inclusive
type NumericRange struct {
	Col  string
	Low  float64
	High float64
}

// Column returns the constrained column name
func (p NumericRange) Column() string { return p.Col }

// Matches reports whether the value parses as a number inside the range
func (p NumericRange) Matches(value interface{}) bool {
	n, ok := schema.AsNumber(value)
	return ok && n >= p.Low && n <= p.High
}

// DateRange passes rows whose parsed date lies in [Start, End] inclusive,
// compared at day granularity
type DateRange struct {
	Col   string
	Start time.Time
	End   time.Time
}

// Column returns the constrained column name
func (p DateRange) Column() string { return p.Col }

// Matches reports whether the value parses as a date inside the range
func (p DateRange) Matches(value interface{}) bool {
	t, ok := schema.AsTime(value)
	if !ok {
		return false
	}
	d := dateOnly(t)
	return !d.Before(dateOnly(p.Start)) && !d.After(dateOnly(p.End))
}

// CategorySet passes rows whose value belongs to a selected subset of the
// column's observed distinct values
type CategorySet struct {
	Col    string
	Values map[string]bool
}

// NewCategorySet builds a membership predicate from selected values
func NewCategorySet(col string, selected []string) CategorySet {
	set := make(map[string]bool, len(selected))
	for _, v := range selected {
		set[v] = true
	}
	return CategorySet{Col: col, Values: set}
}

// Column returns the constrained column name
func (p CategorySet) Column() string { return p.Col }

// Matches reports membership of the value's string form
func (p CategorySet) Matches(value interface{}) bool {
	if value == nil {
		return false
	}
	return p.Values[valueKey(value)]
}

// Apply narrows a result to rows matching every predicate, preserving the
// original row order. No predicates yields the result unchanged.
func Apply(res store.Result, predicates []Predicate) store.Result {
	if len(predicates) == 0 {
		return res
	}

	indexes := make([]int, len(predicates))
	for i, p := range predicates {
		indexes[i] = res.ColumnIndex(p.Column())
	}

	out := store.Result{Columns: res.Columns, Rows: [][]interface{}{}}
	for _, row := range res.Rows {
		keep := true
		for i, p := range predicates {
			idx := indexes[i]
			if idx < 0 || !p.Matches(row[idx]) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// NumericBounds returns the observed min and max of a column's values,
// the default range for a numeric predicate. An all-null column yields
// [0, 0], a defined degenerate case rather than an error.
func NumericBounds(values []interface{}) (float64, float64) {
	var (
		low, high float64
		seen      bool
	)
	for _, v := range values {
		n, ok := schema.AsNumber(v)
		if !ok {
			continue
		}
		if !seen || n < low {
			low = n
		}
		if !seen || n > high {
			high = n
		}
		seen = true
	}
	if !seen {
		return 0, 0
	}
	return low, high
}

// DateBounds returns the observed min and max parseable date of a column's
// values. When no value parses, today is used for both bounds.
func DateBounds(values []interface{}) (time.Time, time.Time) {
	var (
		start, end time.Time
		seen       bool
	)
	for _, v := range values {
		t, ok := schema.AsTime(v)
		if !ok {
			continue
		}
		if !seen || t.Before(start) {
			start = t
		}
		if !seen || t.After(end) {
			end = t
		}
		seen = true
	}
	if !seen {
		today := dateOnly(time.Now())
		return today, today
	}
	return start, end
}

// Candidates returns the distinct non-null values of a column in observed
// order, capped at MaxCandidates. The cap is an arbitrary truncation: values
// past it are not guaranteed to be offered.
func Candidates(values []interface{}) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if v == nil {
			continue
		}
		key := valueKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
		if len(out) == MaxCandidates {
			break
		}
	}
	return out
}

// DefaultSelection returns the pre-selected subset offered before the user
// chooses: the first DefaultSelectionSize candidates
func DefaultSelection(candidates []string) []string {
	if len(candidates) <= DefaultSelectionSize {
		return candidates
	}
	return candidates[:DefaultSelectionSize]
}

// ColumnValues extracts one column's values from a result
func ColumnValues(res store.Result, column string) []interface{} {
	idx := res.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	values := make([]interface{}, len(res.Rows))
	for i, row := range res.Rows {
		values[i] = row[idx]
	}
	return values
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func valueKey(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
