package bqloadbench

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Filter selects descriptors to benchmark.
type Filter func(Descriptor) bool

// RowsEqual selects descriptors of exactly rows rows.
func RowsEqual(rows int) Filter {
	return func(d Descriptor) bool { return d.Rows == rows }
}

// Collect benchmarks every descriptor accepted by filter with the default job
// configuration of its format. The object of each descriptor is expected at
// ObjectName(folder, d.Path), as uploaded by Replicate.
//
// Collect stops at the first failed configuration. Measurements of the
// configurations completed before are returned along with the error.
func Collect(ctx context.Context, cc *ClientContext, ds []Descriptor, folder string, filter Filter, opts ...RunOption) ([]Measurement, error) {
	o, err := buildRunOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx = cc.WithLogger(ctx)
	configs := DefaultJobConfigs()
	ms := []Measurement{}

	for _, d := range ds {
		if filter != nil && !filter(d) {
			continue
		}

		cfg, ok := configs[d.Format]
		if !ok {
			return ms, xerrors.Errorf("no job config for %s", d.Format)
		}

		remote := ObjectName(folder, d.Path)
		loadTimes, err := Run(ctx, cc, remote, cfg, opts...)
		if err != nil {
			return ms, xerrors.Errorf("failed to benchmark %s: %w", remote, err)
		}

		ms = append(ms, Measurement{Descriptor: d, Duplicate: o.duplicate, LoadTimes: loadTimes})
	}

	log.Ctx(ctx).Info().Int("configurations", len(ms)).Msg("load times collected")

	return ms, nil
}
