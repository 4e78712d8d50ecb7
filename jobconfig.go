package bqloadbench

import (
	"cloud.google.com/go/bigquery"
)

// JobConfig configures load jobs for one format.
type JobConfig struct {
	SourceFormat    bigquery.DataFormat
	SkipLeadingRows int64
	Autodetect      bool
	Compression     bigquery.Compression

	// Encoding is the charset of CSV sources. Empty means UTF-8.
	Encoding bigquery.Encoding

	// UseAvroLogicalTypes loads timestamp-micros columns as TIMESTAMP.
	UseAvroLogicalTypes bool
}

func (c JobConfig) apply(ref *bigquery.GCSReference) {
	ref.SourceFormat = c.SourceFormat
	ref.SkipLeadingRows = c.SkipLeadingRows
	ref.AutoDetect = c.Autodetect
	ref.Compression = c.Compression

	if c.Encoding != "" {
		ref.Encoding = c.Encoding
	}

	if c.UseAvroLogicalTypes {
		ref.AvroOptions = &bigquery.AvroOptions{UseAvroLogicalTypes: true}
	}
}

// DefaultJobConfigs returns the load configuration of every format.
// Delimited files have a header row and rely on schema detection; parquet
// and avro carry their own schema.
func DefaultJobConfigs() map[Format]JobConfig {
	return map[Format]JobConfig{
		CSV: {
			SourceFormat:    bigquery.CSV,
			SkipLeadingRows: 1,
			Autodetect:      true,
		},
		GZIP: {
			SourceFormat:    bigquery.CSV,
			SkipLeadingRows: 1,
			Autodetect:      true,
			Compression:     bigquery.Gzip,
		},
		AVRO: {
			SourceFormat:        bigquery.Avro,
			UseAvroLogicalTypes: true,
		},
		PARQUET: {
			SourceFormat: bigquery.Parquet,
		},
	}
}

// JobConfigFor returns the default configuration of f.
func JobConfigFor(f Format) (JobConfig, bool) {
	c, ok := DefaultJobConfigs()[f]
	return c, ok
}
