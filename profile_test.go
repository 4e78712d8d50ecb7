package bqloadbench

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "PARQUET_5000_small.parquet", 3*bytesPerMB/2)
	writeFile(t, dir, "CSV_5000_small.csv", bytesPerMB)
	writeFile(t, dir, "CSV_50000_large.csv", 10*bytesPerMB)
	writeFile(t, dir, "notes.txt", 10)
	writeFile(t, dir, "CSV_1_2_small.csv", 10)

	if err := os.Mkdir(filepath.Join(dir, "AVRO_5000_small.avro"), 0o755); err != nil {
		t.Fatal(err)
	}

	ds, err := Profile(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []Descriptor{
		{Path: filepath.Join(dir, "CSV_5000_small.csv"), Format: CSV, Rows: 5000, SizeMB: 1},
		{Path: filepath.Join(dir, "CSV_50000_large.csv"), Format: CSV, Rows: 50000, SizeMB: 10},
		{Path: filepath.Join(dir, "PARQUET_5000_small.parquet"), Format: PARQUET, Rows: 5000, SizeMB: 1.5},
	}

	if diff := cmp.Diff(expected, ds, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}
}

func TestProfile_sizeInMiB(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "AVRO_100_small.avro", 12345)

	ds, err := Profile(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ds) != 1 {
		t.Fatalf("Size of descriptors should be 1, but %d", len(ds))
	}

	if want := 12345.0 / (1 << 20); math.Abs(ds[0].SizeMB-want) > 1e-12 {
		t.Errorf("SizeMB should be %f, but %f", want, ds[0].SizeMB)
	}
}

func TestProfile_missingDir(t *testing.T) {
	t.Parallel()

	if _, err := Profile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error but no error occurred")
	}
}

func TestSizeStats(t *testing.T) {
	t.Parallel()

	ds := []Descriptor{
		{Format: CSV, Rows: 10, SizeMB: 1},
		{Format: AVRO, Rows: 10, SizeMB: 0.5},
		{Format: CSV, Rows: 10, SizeMB: 2},
	}

	expected := []SizeStat{
		{Format: CSV, Rows: 10, Files: 2, SizeMB: 3},
		{Format: AVRO, Rows: 10, Files: 1, SizeMB: 0.5},
	}

	if diff := cmp.Diff(expected, SizeStats(ds)); diff != "" {
		t.Errorf("SizeStats mismatch (-want +got):\n%s", diff)
	}
}
