package bqloadbench

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	ms := []Measurement{
		{
			Descriptor: Descriptor{Format: CSV, Rows: 5000, SizeMB: 2},
			Duplicate:  1,
			LoadTimes:  []float64{3, 4},
		},
		{
			Descriptor: Descriptor{Format: AVRO, Rows: 5000, SizeMB: 1},
			Duplicate:  10,
			LoadTimes:  []float64{5},
		},
	}

	expected := []Record{
		{Format: CSV, Rows: 5000, Duplicate: 1, Sample: 0, SizeMB: 2, ElapsedSeconds: 3},
		{Format: CSV, Rows: 5000, Duplicate: 1, Sample: 1, SizeMB: 2, ElapsedSeconds: 4},
		{Format: AVRO, Rows: 5000, Duplicate: 10, Sample: 0, SizeMB: 1, ElapsedSeconds: 5},
	}

	if diff := cmp.Diff(expected, Aggregate(ms)); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rs := []Record{
		{Format: PARQUET, Rows: 50000, Duplicate: 1, ElapsedSeconds: 4},
		{Format: CSV, Rows: 50000, Duplicate: 1, ElapsedSeconds: 2},
		{Format: CSV, Rows: 50000, Duplicate: 1, ElapsedSeconds: 4},
		{Format: CSV, Rows: 50000, Duplicate: 1, ElapsedSeconds: 6},
		{Format: CSV, Rows: 50000, Duplicate: 1, ElapsedSeconds: 8},
		{Format: CSV, Rows: 5000, Duplicate: 1, ElapsedSeconds: 1},
	}

	expected := []Summary{
		{Format: CSV, Rows: 5000, Duplicate: 1, Count: 1, Min: 1, Max: 1, Avg: 1, Median: 1},
		{Format: CSV, Rows: 50000, Duplicate: 1, Count: 4, Min: 2, Max: 8, Avg: 5, Median: 5, Stddev: 2.581988897471611},
		{Format: PARQUET, Rows: 50000, Duplicate: 1, Count: 1, Min: 4, Max: 4, Avg: 4, Median: 4},
	}

	if diff := cmp.Diff(expected, Summarize(rs), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	rs := []Record{
		{Format: GZIP, Rows: 5000, Duplicate: 1, Sample: 0, SizeMB: 0.5, ElapsedSeconds: 2.25},
	}

	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, rs); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rows, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]string{
		{"format", "rows", "duplicate", "sample", "size_mb", "elapsed_seconds"},
		{"GZIP", "5000", "1", "0", "0.5", "2.25"},
	}

	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Errorf("WriteCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	ss := []Summary{{Format: PARQUET, Rows: 50000, Duplicate: 10, Count: 10, Min: 1, Max: 2, Avg: 1.5, Median: 1.5}}

	if err := WriteReport(buf, ss); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := buf.String()
	for _, s := range []string{"PARQUET", "50,000", "1.50"} {
		if !strings.Contains(out, s) {
			t.Errorf("report should contain %q:\n%s", s, out)
		}
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, n := range []string{"CSV_100_small.csv", "AVRO_100_small.avro", "CSV_1000_large.csv"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := Profile(dir)
	if err != nil {
		t.Fatal(err)
	}

	s := newTestStore()
	w := newTestWarehouse(time.Second)
	cc := newTestClientContext(s, w)

	names, err := Replicate(context.Background(), cc, dir, "data")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedNames := []string{"data/AVRO_100_small.avro", "data/CSV_1000_large.csv", "data/CSV_100_small.csv"}
	if diff := cmp.Diff(expectedNames, names); diff != "" {
		t.Errorf("Replicate mismatch (-want +got):\n%s", diff)
	}

	ms, err := Collect(context.Background(), cc, ds, "data", RowsEqual(100), WithRepeat(2), WithDuplicate(3))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(ms) != 2 {
		t.Fatalf("Size of measurements should be 2, but %d", len(ms))
	}

	for _, m := range ms {
		if m.Descriptor.Rows != 100 || m.Duplicate != 3 || len(m.LoadTimes) != 2 {
			t.Errorf("unexpected measurement: %+v", m)
		}
	}

	if len(w.submitted) != 4 || len(s.copies) != 6 {
		t.Errorf("unexpected calls: jobs=%d copies=%d", len(w.submitted), len(s.copies))
	}

	if len(Aggregate(ms)) != 4 {
		t.Errorf("Size of records should be 4, but %d", len(Aggregate(ms)))
	}
}

func TestCollect_missingObject(t *testing.T) {
	t.Parallel()

	cc := newTestClientContext(newTestStore(), newTestWarehouse(time.Second))
	ds := []Descriptor{{Path: "data/CSV_100_small.csv", Format: CSV, Rows: 100}}

	if _, err := Collect(context.Background(), cc, ds, "data", nil); err == nil {
		t.Error("expected error but no error occurred")
	}
}
