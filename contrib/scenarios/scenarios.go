package scenarios

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"

	"go.nownabe.dev/bqloadbench"
)

// Row counts of the generated datasets.
const (
	SmallRows = 5_000
	LargeRows = 50_000
)

// Scenario is a benchmark session over the files of one row count.
type Scenario struct {
	Name      string
	Rows      int
	Repeat    int
	Duplicate int
}

// Defaults returns the scenarios comparing small files, large files and
// folders of many large files.
func Defaults() []Scenario {
	return []Scenario{
		{Name: "small files", Rows: SmallRows, Repeat: 10, Duplicate: 1},
		{Name: "large files", Rows: LargeRows, Repeat: 10, Duplicate: 1},
		{Name: "multiple large files", Rows: LargeRows, Repeat: 10, Duplicate: 10},
		{Name: "many large files", Rows: LargeRows, Repeat: 10, Duplicate: 20},
	}
}

// Filter selects the files of s.
func (s Scenario) Filter() bqloadbench.Filter {
	return bqloadbench.RowsEqual(s.Rows)
}

// Options returns the harness options of s.
func (s Scenario) Options() []bqloadbench.RunOption {
	return []bqloadbench.RunOption{
		bqloadbench.WithRepeat(s.Repeat),
		bqloadbench.WithDuplicate(s.Duplicate),
	}
}

// Result builds the session result of s from its measurements.
func (s Scenario) Result(ms []bqloadbench.Measurement, err error) *bqloadbench.Result {
	rs := bqloadbench.Aggregate(ms)

	return &bqloadbench.Result{
		Name:      s.Name,
		Records:   rs,
		Summaries: bqloadbench.Summarize(rs),
		Error:     err,
	}
}

// Run benchmarks the files of ds uploaded under folder and notifies the result.
// The result holds the measurements completed before a failure.
func (s Scenario) Run(ctx context.Context, cc *bqloadbench.ClientContext, ds []bqloadbench.Descriptor, folder string) (*bqloadbench.Result, error) {
	ctx = cc.WithLogger(ctx)
	logger := log.Ctx(ctx).With().Str("scenario", s.Name).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Int("rows", s.Rows).Int("repeat", s.Repeat).Int("duplicate", s.Duplicate).Msg("scenario started")

	ms, err := bqloadbench.Collect(ctx, cc, ds, folder, s.Filter(), s.Options()...)
	if err != nil {
		err = xerrors.Errorf("scenario %q failed: %w", s.Name, err)
	}

	r := s.Result(ms, err)

	if nerr := cc.Notify(ctx, r); nerr != nil {
		logger.Error().Err(nerr).Msg("failed to notify")
	}

	return r, err
}
