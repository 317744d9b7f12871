/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - JSON Source Parsing
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// parseJSON reads a JSON source into a dataset. The whole document is first
// parsed as a single value: an array of objects (each object one row) or a
// bare object (one row). On a syntax error the parser falls back to
// newline-delimited JSON, where each non-blank line is one object and a bad
// line is skipped rather than fatal.
func parseJSON(data []byte) (*dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err == nil && !dec.More() {
		return datasetFromDocument(doc)
	}

	return parseNDJSON(data), nil
}

func datasetFromDocument(doc interface{}) (*dataset, error) {
	ds := &dataset{}

	switch v := doc.(type) {
	case []interface{}:
		for i, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("array element %d is not an object", i)
			}
			ds.addRow(flattenObject(obj))
		}
	case map[string]interface{}:
		ds.addRow(flattenObject(v))
	default:
		return nil, fmt.Errorf("document is not a JSON array or object")
	}

	ds.trimColumns()
	return ds, nil
}

// parseNDJSON parses one object per line, skipping lines that fail
func parseNDJSON(data []byte) *dataset {
	ds := &dataset{}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()

		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			ds.skipped++
			continue
		}
		ds.addRow(flattenObject(obj))
	}

	ds.trimColumns()
	return ds
}

// addRow appends a flattened row, extending the column set with any
// first-seen keys in encounter order
func (ds *dataset) addRow(row map[string]interface{}) {
	seen := make(map[string]bool, len(ds.columns))
	for _, c := range ds.columns {
		seen[c] = true
	}
	for _, k := range sortedNewKeys(row, seen) {
		ds.columns = append(ds.columns, k)
	}
	ds.rows = append(ds.rows, row)
}

// sortedNewKeys returns row keys absent from seen, in a stable order.
// Go maps iterate randomly, so new keys within one row are ordered
// lexicographically; across rows, first-seen order is preserved.
func sortedNewKeys(row map[string]interface{}, seen map[string]bool) []string {
	var fresh []string
	for k := range row {
		if !seen[k] {
			fresh = append(fresh, k)
		}
	}
	for i := 1; i < len(fresh); i++ {
		for j := i; j > 0 && fresh[j] < fresh[j-1]; j-- {
			fresh[j], fresh[j-1] = fresh[j-1], fresh[j]
		}
	}
	return fresh
}

// flattenObject flattens nested objects into dotted-path columns (a.b.c)
// and converts scalars to storage values. Nested arrays are kept opaque as
// their JSON text.
func flattenObject(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	flattenInto(out, "", obj)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, obj map[string]interface{}) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case map[string]interface{}:
			flattenInto(out, key, val)
		case []interface{}:
			if text, err := json.Marshal(val); err == nil {
				out[key] = string(text)
			}
		case json.Number:
			out[key] = numberValue(val)
		default:
			out[key] = val
		}
	}
}

// numberValue keeps integral JSON numbers as int64 so integer columns get
// INTEGER affinity; everything else becomes float64
func numberValue(n json.Number) interface{} {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
