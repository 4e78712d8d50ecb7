package bqloadbench

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// FileName builds the name of an encoded file: <FORMAT>_<rows>_<base>.<ext>.
// Profile and the benchmark harness read format and row count back from it
// with ParseFileName, so both must stay in sync.
func FileName(f Format, rows int, base string) string {
	return fmt.Sprintf("%s_%d_%s.%s", f, rows, base, f.Extension())
}

var fileNameRE = regexp.MustCompile(`^(CSV|GZIP|PARQUET|AVRO)_(\d+)_([A-Za-z][A-Za-z0-9-]*)\.(csv\.gzip|csv|parquet|avro)$`)

// FileInfo is the metadata carried by an encoded file name.
type FileInfo struct {
	Format Format
	Rows   int
	Base   string
}

// ParseFileName extracts format, row count and base name from a path built by
// FileName. Directories are ignored. ok is false for anything that does not
// follow the convention exactly.
func ParseFileName(path string) (info FileInfo, ok bool) {
	m := fileNameRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return FileInfo{}, false
	}

	f, err := ParseFormat(m[1])
	if err != nil || f.Extension() != m[4] {
		return FileInfo{}, false
	}

	rows, err := strconv.Atoi(m[2])
	if err != nil {
		return FileInfo{}, false
	}

	return FileInfo{Format: f, Rows: rows, Base: m[3]}, true
}
