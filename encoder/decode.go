package encoder

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet/file"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqloadbench"
)

// Kind is the column type a file format exposes to a reader.
type Kind string

// Column kinds.
const (
	KindFloat     Kind = "float"
	KindInt       Kind = "int"
	KindTimestamp Kind = "timestamp"
	KindString    Kind = "string"
)

// inferenceRows is how many leading rows CSV kind inference looks at,
// the way schema autodetection samples a delimited file.
const inferenceRows = 100

// Decoded describes the content of an encoded file.
type Decoded struct {
	Columns []string
	Kinds   []Kind
	Rows    int
}

// Decode reads the file at path, whose format is taken from its name.
func Decode(path string) (*Decoded, error) {
	info, ok := bqloadbench.ParseFileName(path)
	if !ok {
		return nil, xerrors.Errorf("unexpected file name: %s", path)
	}

	switch info.Format {
	case bqloadbench.CSV, bqloadbench.GZIP:
		f, err := os.Open(path)
		if err != nil {
			return nil, xerrors.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		var r io.Reader = f
		if info.Format == bqloadbench.GZIP {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return nil, xerrors.Errorf("failed to read gzip header of %s: %w", path, err)
			}
			defer gz.Close()
			r = gz
		}
		return decodeCSV(r)
	case bqloadbench.PARQUET:
		return decodeParquet(path)
	case bqloadbench.AVRO:
		return decodeAvro(path)
	}

	return nil, xerrors.Errorf("unsupported format %s", info.Format)
}

func decodeCSV(r io.Reader) (*Decoded, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, xerrors.Errorf("failed to parse csv: %w", err)
	}

	if len(records) == 0 {
		return nil, xerrors.New("csv has no header")
	}

	header, rows := records[0], records[1:]
	d := &Decoded{Columns: header, Kinds: make([]Kind, len(header)), Rows: len(rows)}

	sample := rows
	if len(sample) > inferenceRows {
		sample = sample[:inferenceRows]
	}

	for j := range header {
		d.Kinds[j] = inferKind(sample, j)
	}

	return d, nil
}

// inferKind picks the narrowest kind matching every sampled value of column j.
// Empty values match nothing, so a column empty in the whole sample is string.
func inferKind(rows [][]string, j int) Kind {
	candidates := []Kind{KindInt, KindFloat, KindTimestamp}

	for _, r := range rows {
		v := r[j]
		if v == "" {
			return KindString
		}

		kept := candidates[:0]
		for _, k := range candidates {
			if parsesAs(k, v) {
				kept = append(kept, k)
			}
		}
		candidates = kept

		if len(candidates) == 0 {
			return KindString
		}
	}

	if len(rows) == 0 {
		return KindString
	}

	return candidates[0]
}

func parsesAs(k Kind, v string) bool {
	switch k {
	case KindInt:
		_, err := strconv.ParseInt(v, 10, 64)
		return err == nil
	case KindFloat:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	case KindTimestamp:
		_, err := time.Parse(TimestampLayout, v)
		return err == nil
	}
	return true
}

func decodeParquet(path string) (*Decoded, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, xerrors.Errorf("failed to open parquet file %s: %w", path, err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, xerrors.Errorf("failed to create arrow reader: %w", err)
	}

	schema, err := fr.Schema()
	if err != nil {
		return nil, xerrors.Errorf("failed to read arrow schema: %w", err)
	}

	d := &Decoded{Rows: int(rdr.NumRows())}
	for _, f := range schema.Fields() {
		d.Columns = append(d.Columns, f.Name)
		d.Kinds = append(d.Kinds, arrowKind(f.Type))
	}

	return d, nil
}

func arrowKind(t arrow.DataType) Kind {
	switch t.ID() {
	case arrow.FLOAT64, arrow.FLOAT32:
		return KindFloat
	case arrow.INT64, arrow.INT32:
		return KindInt
	case arrow.TIMESTAMP:
		return KindTimestamp
	}
	return KindString
}

func decodeAvro(path string) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := ocf.NewDecoder(f)
	if err != nil {
		return nil, xerrors.Errorf("failed to create avro decoder: %w", err)
	}

	schema, err := avro.Parse(string(dec.Metadata()["avro.schema"]))
	if err != nil {
		return nil, xerrors.Errorf("failed to parse avro schema: %w", err)
	}

	rec, ok := schema.(*avro.RecordSchema)
	if !ok {
		return nil, xerrors.Errorf("avro schema is not a record: %s", schema.Type())
	}

	d := &Decoded{}
	for _, field := range rec.Fields() {
		d.Columns = append(d.Columns, field.Name())
		d.Kinds = append(d.Kinds, avroKind(field.Type()))
	}

	for dec.HasNext() {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, xerrors.Errorf("failed to decode row %d: %w", d.Rows, err)
		}
		d.Rows++
	}

	if err := dec.Error(); err != nil {
		return nil, xerrors.Errorf("failed to read %s: %w", path, err)
	}

	return d, nil
}

func avroKind(s avro.Schema) Kind {
	if u, ok := s.(*avro.UnionSchema); ok {
		for _, t := range u.Types() {
			if t.Type() != avro.Null {
				return avroKind(t)
			}
		}
	}

	switch s.Type() {
	case avro.Double, avro.Float:
		return KindFloat
	case avro.Long, avro.Int:
		if p, ok := s.(*avro.PrimitiveSchema); ok && p.Logical() != nil {
			switch p.Logical().Type() {
			case avro.TimestampMicros, avro.TimestampMillis:
				return KindTimestamp
			}
		}
		return KindInt
	}

	return KindString
}
