package bqloadbench

import (
	"strings"

	"golang.org/x/xerrors"
)

// Format is a file encoding benchmarked by loading into BigQuery.
type Format int

// Supported formats.
const (
	CSV Format = iota + 1
	GZIP
	PARQUET
	AVRO
)

// Formats lists every supported format in a stable order.
var Formats = []Format{CSV, GZIP, PARQUET, AVRO}

var (
	formatNames = map[Format]string{
		CSV:     "CSV",
		GZIP:    "GZIP",
		PARQUET: "PARQUET",
		AVRO:    "AVRO",
	}

	formatExtensions = map[Format]string{
		CSV:     "csv",
		GZIP:    "csv.gzip",
		PARQUET: "parquet",
		AVRO:    "avro",
	}
)

// String returns the upper-case tag used in file names, e.g. "PARQUET".
func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return "UNKNOWN"
}

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	return formatExtensions[f]
}

// ParseFormat parses a format tag. It is case insensitive.
func ParseFormat(s string) (Format, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == u {
			return f, nil
		}
	}
	return 0, xerrors.Errorf("unknown format: %q", s)
}
