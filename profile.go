package bqloadbench

import (
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/xerrors"
)

const bytesPerMB = 1 << 20

// Descriptor describes one encoded file on the local disk.
type Descriptor struct {
	Path   string
	Format Format
	Rows   int
	SizeMB float64
}

// Name returns the file name without directories.
func (d Descriptor) Name() string {
	return filepath.Base(d.Path)
}

// Profile scans dir for encoded files and describes them.
// Files not named by FileName are skipped.
func Profile(dir string) ([]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, xerrors.Errorf("failed to read directory %s: %w", dir, err)
	}

	ds := []Descriptor{}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		info, ok := ParseFileName(e.Name())
		if !ok {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			return nil, xerrors.Errorf("failed to stat %s: %w", e.Name(), err)
		}

		ds = append(ds, Descriptor{
			Path:   filepath.Join(dir, e.Name()),
			Format: info.Format,
			Rows:   info.Rows,
			SizeMB: float64(fi.Size()) / bytesPerMB,
		})
	}

	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Format != ds[j].Format {
			return ds[i].Format < ds[j].Format
		}
		if ds[i].Rows != ds[j].Rows {
			return ds[i].Rows < ds[j].Rows
		}
		return ds[i].Path < ds[j].Path
	})

	return ds, nil
}

// SizeStat is the total size of files sharing a format and row count.
type SizeStat struct {
	Format Format
	Rows   int
	Files  int
	SizeMB float64
}

// SizeStats groups descriptors by format and row count, keeping the order in
// which each group first appears.
func SizeStats(ds []Descriptor) []SizeStat {
	type key struct {
		f    Format
		rows int
	}

	idx := map[key]int{}
	stats := []SizeStat{}

	for _, d := range ds {
		k := key{d.Format, d.Rows}
		i, ok := idx[k]
		if !ok {
			i = len(stats)
			idx[k] = i
			stats = append(stats, SizeStat{Format: d.Format, Rows: d.Rows})
		}
		stats[i].Files++
		stats[i].SizeMB += d.SizeMB
	}

	return stats
}
