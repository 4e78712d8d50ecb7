package encoder

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hamba/avro/v2/ocf"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqloadbench"
	"go.nownabe.dev/bqloadbench/dataset"
)

// EncodeAvro writes t as an Avro object container file. Datetime columns are
// longs with the timestamp-micros logical type.
func EncodeAvro(t *dataset.Table, dir, base string) (string, error) {
	p := outputPath(bqloadbench.AVRO, t, dir, base)
	return p, writeFile(p, func(w io.Writer) error {
		return writeAvro(w, t)
	})
}

type avroField struct {
	Name    string `json:"name"`
	Type    any    `json:"type"`
	Default any    `json:"default,omitempty"`
}

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

func avroSchema(t *dataset.Table) (string, error) {
	rec := avroRecord{Type: "record", Name: "Row", Fields: make([]avroField, 0, len(t.Columns))}

	for _, c := range t.Columns {
		var typ any
		switch c.Type {
		case dataset.Float:
			typ = "double"
		case dataset.Int:
			typ = "long"
		case dataset.Datetime:
			typ = map[string]string{"type": "long", "logicalType": "timestamp-micros"}
		default:
			typ = "string"
		}

		f := avroField{Name: c.Name, Type: typ}
		if hasMissing(c) {
			f.Type = []any{"null", typ}
		}
		rec.Fields = append(rec.Fields, f)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return "", xerrors.Errorf("failed to marshal avro schema: %w", err)
	}

	return string(b), nil
}

func writeAvro(w io.Writer, t *dataset.Table) error {
	schema, err := avroSchema(t)
	if err != nil {
		return err
	}

	enc, err := ocf.NewEncoder(schema, w, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return xerrors.Errorf("failed to create avro encoder: %w", err)
	}

	nullable := make([]bool, len(t.Columns))
	for j, c := range t.Columns {
		nullable[j] = hasMissing(c)
	}

	for i := 0; i < t.Rows(); i++ {
		row := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			v, err := avroValue(c, c.Values[i], nullable[j])
			if err != nil {
				enc.Close()
				return xerrors.Errorf("failed to encode %s of row %d: %w", c.Name, i, err)
			}
			row[c.Name] = v
		}

		if err := enc.Encode(row); err != nil {
			enc.Close()
			return xerrors.Errorf("failed to encode row %d: %w", i, err)
		}
	}

	if err := enc.Close(); err != nil {
		return xerrors.Errorf("failed to close avro encoder: %w", err)
	}

	return nil
}

// avroValue wraps values of nullable columns in pointers, which the encoder
// writes as the null branch when nil.
func avroValue(c dataset.Column, v any, nullable bool) (any, error) {
	if !nullable {
		return v, nil
	}

	switch c.Type {
	case dataset.Float:
		return nullablePtr[float64](v)
	case dataset.Int:
		return nullablePtr[int64](v)
	case dataset.Datetime:
		return nullablePtr[time.Time](v)
	case dataset.String, dataset.Char:
		return nullablePtr[string](v)
	}

	return nil, xerrors.Errorf("unsupported column type %s", c.Type)
}

func nullablePtr[T any](v any) (any, error) {
	if v == nil {
		return (*T)(nil), nil
	}

	x, ok := v.(T)
	if !ok {
		return nil, unexpectedValue(v)
	}
	return &x, nil
}
