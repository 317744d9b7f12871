/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - CSV Export Tests
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"banksight/internal/store"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"string", "Mumbai", "Mumbai"},
		{"bytes", []byte("raw"), "raw"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"int64", int64(42), "42"},
		{"float", 123.45, "123.45"},
		{"time", time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), "2023-05-01T10:00:00Z"},
		{"array", []interface{}{1, 2}, "[1,2]"},
		{"object", map[string]interface{}{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.input); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	res := store.Result{
		Columns: []string{"customer_id", "name", "note"},
		Rows: [][]interface{}{
			{"C001", "Asha", "plain"},
			{"C002", `said "hi"`, "a,b"},
			{"C003", nil, "line1\nline2"},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, res); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3 rows", len(records))
	}
	if strings.Join(records[0], "|") != "customer_id|name|note" {
		t.Errorf("header = %v", records[0])
	}
	if records[2][1] != `said "hi"` || records[2][2] != "a,b" {
		t.Errorf("quoted row survived as %v", records[2])
	}
	if records[3][1] != "" {
		t.Errorf("NULL cell = %q, want empty", records[3][1])
	}
	if records[3][2] != "line1\nline2" {
		t.Errorf("embedded newline lost: %q", records[3][2])
	}
}

func TestWriteCSVEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, store.Result{Columns: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got := buf.String(); got != "a,b\n" {
		t.Errorf("output = %q, want header only", got)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("customers"); got != "customers.csv" {
		t.Errorf("Filename = %q", got)
	}
}
