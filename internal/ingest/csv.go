/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Delimited Text Parsing
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"banksight/internal/schema"
)

// parseCSV reads delimited text into a dataset. The first line is the
// header; every value is coerced to the most specific scalar kind the whole
// column supports, in the order integer > float > boolean > temporal > text,
// so a column stays internally consistent.
func parseCSV(data []byte) (*dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are rejected below with context

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited text: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("delimited file has no header line")
	}

	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	raw := make([][]string, 0, len(records)-1)
	for lineNo, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("line %d has %d fields, header has %d",
				lineNo+2, len(rec), len(header))
		}
		raw = append(raw, rec)
	}

	ds := &dataset{columns: header}
	coercers := make([]func(string) interface{}, len(header))
	for i := range header {
		coercers[i] = columnCoercer(raw, i)
	}

	for _, rec := range raw {
		row := make(map[string]interface{}, len(header))
		for i, col := range header {
			row[col] = coercers[i](rec[i])
		}
		ds.rows = append(ds.rows, row)
	}

	ds.trimColumns()
	return ds, nil
}

// columnCoercer inspects every value in a column and returns the coercion
// for the most specific kind they all support. Empty fields count as null
// and do not constrain the choice.
func columnCoercer(records [][]string, col int) func(string) interface{} {
	var (
		sawValue    = false
		allInt      = true
		allFloat    = true
		allBool     = true
		allTemporal = true
	)

	for _, rec := range records {
		v := strings.TrimSpace(rec[col])
		if v == "" {
			continue
		}
		sawValue = true

		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allBool && !isBoolLiteral(v) {
			allBool = false
		}
		if allTemporal {
			if _, ok := schema.AsTime(v); !ok {
				allTemporal = false
			}
		}
	}

	if !sawValue {
		return coerceText
	}
	switch {
	case allInt:
		return coerceInt
	case allFloat:
		return coerceFloat
	case allBool:
		return coerceBool
	case allTemporal:
		return coerceText // temporal values persist as their text form
	default:
		return coerceText
	}
}

func isBoolLiteral(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	}
	return false
}

func coerceText(v string) interface{} {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func coerceInt(v string) interface{} {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func coerceFloat(v string) interface{} {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return f
}

func coerceBool(v string) interface{} {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true
	case "false":
		return false
	}
	return nil
}
