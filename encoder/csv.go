package encoder

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqloadbench"
	"go.nownabe.dev/bqloadbench/dataset"
)

// TimestampLayout is the layout of datetime values in delimited files.
const TimestampLayout = "2006-01-02 15:04:05"

// NewCSVEncoder returns an encoder writing CSV with a header row.
// A nil enc writes UTF-8.
func NewCSVEncoder(enc encoding.Encoding) Encoder {
	return func(t *dataset.Table, dir, base string) (string, error) {
		p := outputPath(bqloadbench.CSV, t, dir, base)
		return p, writeFile(p, func(w io.Writer) error {
			return writeCSV(w, t, enc)
		})
	}
}

// NewGzipEncoder returns an encoder writing gzip compressed CSV.
func NewGzipEncoder(enc encoding.Encoding) Encoder {
	return func(t *dataset.Table, dir, base string) (string, error) {
		p := outputPath(bqloadbench.GZIP, t, dir, base)
		return p, writeFile(p, func(w io.Writer) error {
			gz := gzip.NewWriter(w)
			if err := writeCSV(gz, t, enc); err != nil {
				gz.Close()
				return err
			}
			return gz.Close()
		})
	}
}

func writeCSV(w io.Writer, t *dataset.Table, enc encoding.Encoding) error {
	var tw io.WriteCloser
	if enc != nil {
		tw = transform.NewWriter(w, enc.NewEncoder())
		w = tw
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(t.Names()); err != nil {
		return xerrors.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i := 0; i < t.Rows(); i++ {
		for j, c := range t.Columns {
			record[j] = formatValue(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return xerrors.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return xerrors.Errorf("failed to flush csv: %w", err)
	}

	if tw != nil {
		return tw.Close()
	}

	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.UTC().Format(TimestampLayout)
	case string:
		return x
	}
	return ""
}
