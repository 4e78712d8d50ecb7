package encoder

import (
	"io"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqloadbench"
	"go.nownabe.dev/bqloadbench/dataset"
)

const rowGroupSize = 65536

// EncodeParquet writes t as a snappy compressed Parquet file.
func EncodeParquet(t *dataset.Table, dir, base string) (string, error) {
	p := outputPath(bqloadbench.PARQUET, t, dir, base)
	return p, writeFile(p, func(w io.Writer) error {
		return writeParquet(w, t)
	})
}

func arrowSchema(t *dataset.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Columns))
	for _, c := range t.Columns {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: hasMissing(c)})
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t dataset.Type) arrow.DataType {
	switch t {
	case dataset.Float:
		return arrow.PrimitiveTypes.Float64
	case dataset.Int:
		return arrow.PrimitiveTypes.Int64
	case dataset.Datetime:
		return arrow.FixedWidthTypes.Timestamp_us
	}
	return arrow.BinaryTypes.String
}

func writeParquet(w io.Writer, t *dataset.Table) error {
	mem := memory.NewGoAllocator()
	schema := arrowSchema(t)

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithMaxRowGroupLength(rowGroupSize),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	fw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return xerrors.Errorf("failed to create parquet writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for start := 0; start < t.Rows(); start += rowGroupSize {
		end := start + rowGroupSize
		if end > t.Rows() {
			end = t.Rows()
		}

		for j, c := range t.Columns {
			if err := appendArrow(b.Field(j), c.Values[start:end]); err != nil {
				fw.Close()
				return xerrors.Errorf("failed to build column %s: %w", c.Name, err)
			}
		}

		rec := b.NewRecord()
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			fw.Close()
			return xerrors.Errorf("failed to write rows %d-%d: %w", start, end, err)
		}
	}

	return fw.Close()
}

func appendArrow(b array.Builder, values []any) error {
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}

		switch bb := b.(type) {
		case *array.Float64Builder:
			x, ok := v.(float64)
			if !ok {
				return unexpectedValue(v)
			}
			bb.Append(x)
		case *array.Int64Builder:
			x, ok := v.(int64)
			if !ok {
				return unexpectedValue(v)
			}
			bb.Append(x)
		case *array.TimestampBuilder:
			x, ok := v.(time.Time)
			if !ok {
				return unexpectedValue(v)
			}
			bb.Append(arrow.Timestamp(x.UnixMicro()))
		case *array.StringBuilder:
			x, ok := v.(string)
			if !ok {
				return unexpectedValue(v)
			}
			bb.Append(x)
		default:
			return xerrors.Errorf("unsupported builder %T", b)
		}
	}

	return nil
}

func unexpectedValue(v any) error {
	return xerrors.Errorf("unexpected value %v (%T)", v, v)
}
