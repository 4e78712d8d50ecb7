package bqloadbench

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/xerrors"
)

// Measurement is the load times of one encoded file under one duplicate count.
type Measurement struct {
	Descriptor Descriptor
	Duplicate  int
	LoadTimes  []float64
}

// Record is a single load time sample.
type Record struct {
	Format         Format
	Rows           int
	Duplicate      int
	Sample         int
	SizeMB         float64
	ElapsedSeconds float64
}

// Aggregate flattens measurements into one record per sample, keeping the
// order of measurements and of samples within each.
func Aggregate(ms []Measurement) []Record {
	rs := []Record{}

	for _, m := range ms {
		for i, s := range m.LoadTimes {
			rs = append(rs, Record{
				Format:         m.Descriptor.Format,
				Rows:           m.Descriptor.Rows,
				Duplicate:      m.Duplicate,
				Sample:         i,
				SizeMB:         m.Descriptor.SizeMB,
				ElapsedSeconds: s,
			})
		}
	}

	return rs
}

// Summary is the distribution of load times of one configuration.
type Summary struct {
	Format    Format
	Rows      int
	Duplicate int
	Count     int
	Min       float64
	Max       float64
	Avg       float64
	Median    float64
	Stddev    float64
}

// Summarize computes a Summary per (format, rows, duplicate), sorted by
// rows, duplicate and format.
func Summarize(rs []Record) []Summary {
	type key struct {
		f    Format
		rows int
		dup  int
	}

	groups := map[key][]float64{}
	for _, r := range rs {
		k := key{r.Format, r.Rows, r.Duplicate}
		groups[k] = append(groups[k], r.ElapsedSeconds)
	}

	ss := make([]Summary, 0, len(groups))
	for k, values := range groups {
		s := summarize(values)
		s.Format, s.Rows, s.Duplicate = k.f, k.rows, k.dup
		ss = append(ss, s)
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Rows != ss[j].Rows {
			return ss[i].Rows < ss[j].Rows
		}
		if ss[i].Duplicate != ss[j].Duplicate {
			return ss[i].Duplicate < ss[j].Duplicate
		}
		return ss[i].Format < ss[j].Format
	})

	return ss
}

func summarize(values []float64) Summary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	s := Summary{Count: n}
	if n == 0 {
		return s
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	s.Min = sorted[0]
	s.Max = sorted[n-1]
	s.Avg = sum / float64(n)

	mid := n / 2
	if n%2 == 0 {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.Median = sorted[mid]
	}

	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - s.Avg
			sq += d * d
		}
		s.Stddev = math.Sqrt(sq / float64(n-1))
	}

	return s
}

var recordHeader = []string{"format", "rows", "duplicate", "sample", "size_mb", "elapsed_seconds"}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, rs []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(recordHeader); err != nil {
		return xerrors.Errorf("failed to write header: %w", err)
	}

	for _, r := range rs {
		row := []string{
			r.Format.String(),
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Duplicate),
			strconv.Itoa(r.Sample),
			strconv.FormatFloat(r.SizeMB, 'f', -1, 64),
			strconv.FormatFloat(r.ElapsedSeconds, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return xerrors.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return xerrors.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

// WriteReport writes summaries as an aligned text table.
func WriteReport(w io.Writer, ss []Summary) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "format\trows\tfiles\tjobs\tmin\tmedian\tavg\tmax\tstddev\t")
	for _, s := range ss {
		p.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			s.Format, s.Rows, s.Duplicate, s.Count, s.Min, s.Median, s.Avg, s.Max, s.Stddev)
	}

	if err := tw.Flush(); err != nil {
		return xerrors.Errorf("failed to write report: %w", err)
	}

	return nil
}
