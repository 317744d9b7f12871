/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - CSV Export
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"banksight/internal/store"
)

// FormatValue converts a result cell to its CSV cell text.
// Handles NULLs, complex types, and non-string scalars.
func FormatValue(v interface{}) string {
	if v == nil {
		return "" // NULL represented as empty string
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	case []interface{}, map[string]interface{}:
		// Complex types (arrays, JSON objects) - serialize to JSON
		jsonBytes, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(jsonBytes)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// WriteCSV streams a result as RFC 4180 CSV: one header row with the
// result's column names in order, then one row per data row. Quoting is
// handled by encoding/csv so embedded commas, quotes, and newlines survive
// a round trip.
func WriteCSV(w io.Writer, res store.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(res.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = FormatValue(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name for an exported artifact
func Filename(base string) string {
	return base + ".csv"
}
