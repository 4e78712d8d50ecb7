package bqloadbench

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"golang.org/x/xerrors"
)

// Tables created by the benchmark are dropped by BigQuery after this period
// even when Teardown never runs.
const tableExpiration = time.Hour

// runLabel labels load jobs with the token of the run submitting them.
const runLabel = "bqloadbench_run"

// Warehouse is the part of BigQuery the benchmark depends on.
type Warehouse interface {
	CreateDataset(ctx context.Context, dataset, location string) error
	Submit(ctx context.Context, dataset, table, uri string, cfg JobConfig) (PendingJob, error)
	DeleteDataset(ctx context.Context, dataset string) error
	Close() error
}

// PendingJob is a submitted load job.
type PendingJob interface {
	ID() string
	// Wait blocks until the job is done. A failed job returns an error.
	Wait(context.Context) (JobTiming, error)
}

// JobTiming is the start and end of a job as reported by the service.
type JobTiming struct {
	Start time.Time
	End   time.Time
}

// Seconds is the duration of the job.
func (t JobTiming) Seconds() float64 {
	return t.End.Sub(t.Start).Seconds()
}

type bigQueryWarehouse struct {
	client *bigquery.Client
}

func (w *bigQueryWarehouse) CreateDataset(ctx context.Context, dataset, location string) error {
	return w.client.Dataset(dataset).Create(ctx, &bigquery.DatasetMetadata{
		Location:               location,
		DefaultTableExpiration: tableExpiration,
	})
}

func (w *bigQueryWarehouse) Submit(ctx context.Context, dataset, table, uri string, cfg JobConfig) (PendingJob, error) {
	ref := bigquery.NewGCSReference(uri)
	cfg.apply(ref)

	loader := w.client.Dataset(dataset).Table(table).LoaderFrom(ref)
	if r, ok := runFrom(ctx); ok {
		loader.Labels = map[string]string{runLabel: r.token}
	}

	job, err := loader.Run(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to run bigquery load job into %s.%s: %w", dataset, table, err)
	}

	return &bigQueryJob{job: job}, nil
}

func (w *bigQueryWarehouse) DeleteDataset(ctx context.Context, dataset string) error {
	return w.client.Dataset(dataset).DeleteWithContents(ctx)
}

func (w *bigQueryWarehouse) Close() error {
	return w.client.Close()
}

type bigQueryJob struct {
	job *bigquery.Job
}

func (j *bigQueryJob) ID() string {
	return j.job.ID()
}

func (j *bigQueryJob) Wait(ctx context.Context) (JobTiming, error) {
	status, err := j.job.Wait(ctx)
	if err != nil {
		return JobTiming{}, xerrors.Errorf("failed to wait job %s: %w", j.job.ID(), err)
	}

	if err := status.Err(); err != nil {
		return JobTiming{}, xerrors.Errorf("load job %s failed: %w", j.job.ID(), err)
	}

	st := status.Statistics
	if st == nil {
		return JobTiming{}, xerrors.Errorf("load job %s has no statistics", j.job.ID())
	}

	return JobTiming{Start: st.StartTime, End: st.EndTime}, nil
}
