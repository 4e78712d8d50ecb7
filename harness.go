package bqloadbench

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type runOptions struct {
	repeat    int
	duplicate int
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

// WithRepeat sets the number of load jobs submitted. Default is 1.
func WithRepeat(n int) RunOption {
	return func(o *runOptions) { o.repeat = n }
}

// WithDuplicate sets the number of copies of the source object every load
// job ingests. Default is 1.
func WithDuplicate(n int) RunOption {
	return func(o *runOptions) { o.duplicate = n }
}

func buildRunOptions(opts []RunOption) (runOptions, error) {
	o := runOptions{repeat: 1, duplicate: 1}
	for _, f := range opts {
		f(&o)
	}

	if o.repeat < 1 || o.duplicate < 1 {
		return o, xerrors.Errorf("repeat and duplicate must be positive: repeat=%d, duplicate=%d", o.repeat, o.duplicate)
	}

	return o, nil
}

// Run measures load jobs of the object named remote in the bucket of cc.
//
// The object is first copied duplicate times under a fresh prefix. Then repeat
// load jobs are submitted, each into its own table and each reading every
// copy through one wildcard URI. All jobs are submitted before waiting on any
// of them. Run returns the duration of each job in seconds, in submission
// order, computed from the start and end times reported by BigQuery.
//
// A failed job aborts the run. Jobs are never cancelled.
func Run(ctx context.Context, cc *ClientContext, remote string, cfg JobConfig, opts ...RunOption) ([]float64, error) {
	o, err := buildRunOptions(opts)
	if err != nil {
		return nil, err
	}

	token := newRunToken()
	prefix := runPrefix(token, remote)

	ctx = cc.WithLogger(ctx)
	logger := log.Ctx(ctx).With().
		Str("source", remote).
		Str("prefix", prefix).
		Int("repeat", o.repeat).
		Int("duplicate", o.duplicate).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("benchmark started")

	if err := duplicateObject(ctx, cc, remote, prefix, o.duplicate); err != nil {
		return nil, err
	}

	uri := gsURI(cc.Bucket, prefix+"/*")
	jobs := make([]PendingJob, 0, o.repeat)

	ctx = withRun(ctx, token)

	for i := 0; i < o.repeat; i++ {
		table := tableName(token, i)
		job, err := cc.warehouse.Submit(ctx, cc.Dataset, table, uri, cfg)
		if err != nil {
			logger.Error().Err(err).Str("table", table).Msg("failed to submit load job")
			return nil, xerrors.Errorf("failed to submit load job %d of %s: %w", i, remote, err)
		}
		logger.Debug().Str("table", table).Str("job", job.ID()).Msg("load job submitted")
		jobs = append(jobs, job)
	}

	info, named := ParseFileName(remote)
	if !named {
		logger.Debug().Msg("source does not follow the file naming convention, samples are not observed")
	}
	loadTimes := make([]float64, 0, len(jobs))

	for i, job := range jobs {
		timing, err := job.Wait(ctx)
		if err != nil {
			logger.Error().Err(err).Str("job", job.ID()).Msg("load job failed")
			return nil, xerrors.Errorf("failed to load %s (job %d): %w", remote, i, err)
		}

		s := timing.Seconds()
		loadTimes = append(loadTimes, s)
		if named {
			cc.metrics.observe(info.Format, info.Rows, o.duplicate, s)
		}

		logger.Debug().
			Str("job", job.ID()).
			Float64("seconds", s).
			Dur("client_elapsed", sinceSubmitted(ctx)).
			Msg("load job finished")
	}

	logger.Info().Floats64("load_times", loadTimes).Msg("benchmark finished")

	return loadTimes, nil
}

func duplicateObject(ctx context.Context, cc *ClientContext, remote, prefix string, n int) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cc.concurrency)

	for i := 0; i < n; i++ {
		dst := duplicateName(prefix, remote, i)
		eg.Go(func() error {
			if err := cc.storage.Copy(ctx, cc.Bucket, remote, dst); err != nil {
				return xerrors.Errorf("failed to copy %s to %s: %w", gsURI(cc.Bucket, remote), dst, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	log.Ctx(ctx).Debug().Int("copies", n).Msg("source duplicated")

	return nil
}

// newRunToken returns a random 128 bit token rendered as 32 hex characters.
func newRunToken() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}

func runPrefix(token, remote string) string {
	return token + "_" + path.Base(remote)
}

func duplicateName(prefix, remote string, i int) string {
	return fmt.Sprintf("%s/%s_%05d", prefix, path.Base(remote), i)
}

func tableName(token string, i int) string {
	return fmt.Sprintf("load_%s_%05d", token, i)
}
