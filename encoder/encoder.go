// Package encoder writes generated tables as CSV, gzip compressed CSV,
// Parquet and Avro files named after bqloadbench.FileName.
package encoder

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"go.nownabe.dev/bqloadbench"
	"go.nownabe.dev/bqloadbench/dataset"
)

// Encoder writes t into dir and returns the path of the written file.
type Encoder func(t *dataset.Table, dir, base string) (string, error)

// Encoders maps each format to its encoder.
var Encoders = map[bqloadbench.Format]Encoder{
	bqloadbench.CSV:     NewCSVEncoder(nil),
	bqloadbench.GZIP:    NewGzipEncoder(nil),
	bqloadbench.PARQUET: EncodeParquet,
	bqloadbench.AVRO:    EncodeAvro,
}

// EncodeAll writes t in every format and returns the written paths in the
// order of bqloadbench.Formats.
func EncodeAll(t *dataset.Table, dir, base string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Errorf("failed to create %s: %w", dir, err)
	}

	paths := make([]string, 0, len(bqloadbench.Formats))
	for _, f := range bqloadbench.Formats {
		p, err := Encoders[f](t, dir, base)
		if err != nil {
			return nil, xerrors.Errorf("failed to encode %s: %w", f, err)
		}
		paths = append(paths, p)
	}

	return paths, nil
}

func outputPath(f bqloadbench.Format, t *dataset.Table, dir, base string) string {
	return filepath.Join(dir, bqloadbench.FileName(f, t.Rows(), base))
}

// writeFile creates path and passes it to write. Writers that close their
// sink themselves are fine.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("failed to create %s: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
			err = xerrors.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := write(f); err != nil {
		return xerrors.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func hasMissing(c dataset.Column) bool {
	for _, v := range c.Values {
		if v == nil {
			return true
		}
	}
	return false
}
