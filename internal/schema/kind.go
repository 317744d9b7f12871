/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Column Kind Classification
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred scalar domain of a column, used to pick the filter
// predicate shape offered for it.
type Kind int

const (
	KindNumeric Kind = iota
	KindTemporal
	KindCategorical
)

// String returns the kind name used in API payloads
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// dateLayouts are tried in order when parsing temporal values. Source files
// carry ISO dates and timestamps; the RFC3339 form is what the simulation
// writes back.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
}

// Classify determines the filter domain for a column given its descriptor and
// the values observed in the loaded rows:
//   - numeric when every non-null value parses as a number
//   - temporal when the declared type is date-like OR the column name contains
//     "date" or "time" as a case-insensitive substring
//   - categorical otherwise
func Classify(col ColumnInfo, values []interface{}) Kind {
	if allNumeric(values) {
		return KindNumeric
	}

	if temporalDeclaredType(col.DeclaredType) || temporalName(col.Name) {
		return KindTemporal
	}

	return KindCategorical
}

func allNumeric(values []interface{}) bool {
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := AsNumber(v); !ok {
			return false
		}
	}
	return true
}

func temporalDeclaredType(declared string) bool {
	d := strings.ToUpper(declared)
	return strings.Contains(d, "DATE") || strings.Contains(d, "TIME")
}

func temporalName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "date") || strings.Contains(n, "time")
}

// AsNumber attempts to interpret a scalar as a float64
func AsNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		return 0, false
	case []byte:
		return parseNumberString(string(val))
	case string:
		return parseNumberString(val)
	default:
		return parseNumberString(fmt.Sprintf("%v", val))
	}
}

func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsTime attempts to interpret a scalar as a timestamp
func AsTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case []byte:
		return parseTimeString(string(val))
	case string:
		return parseTimeString(val)
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
