package bqloadbench

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Config identifies the Google Cloud resources used by a benchmarking session.
type Config struct {
	// Project is the GCP project owning the bucket and the dataset.
	Project string

	// Location of the bucket and the dataset, e.g. "europe-west2".
	Location string

	// Bucket is the Cloud Storage bucket staging the benchmarked files.
	Bucket string

	// Dataset is the BigQuery dataset receiving the load jobs.
	Dataset string
}

// ClientContext holds both service handles together with the bucket and
// dataset they operate on. Every benchmark call takes it explicitly.
type ClientContext struct {
	Config

	storage   ObjectStore
	warehouse Warehouse

	logger      zerolog.Logger
	metrics     *loadMetrics
	notifier    Notifier
	concurrency int
}

// NewClientContext builds Cloud Storage and BigQuery clients for cfg unless
// WithObjectStore or WithWarehouse provide them.
func NewClientContext(ctx context.Context, cfg Config, opts ...Option) (*ClientContext, error) {
	if cfg.Project == "" || cfg.Bucket == "" || cfg.Dataset == "" {
		return nil, xerrors.Errorf("project, bucket and dataset are required: %+v", cfg)
	}

	cc := newClientContext(cfg)
	for _, o := range opts {
		if err := o.apply(cc); err != nil {
			return nil, xerrors.Errorf("failed to apply option: %w", err)
		}
	}

	if cc.storage == nil {
		s, err := storage.NewClient(ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to build storage client for %s: %w", cfg.Project, err)
		}
		cc.storage = &gcsStore{client: s}
	}

	if cc.warehouse == nil {
		bq, err := bigquery.NewClient(ctx, cfg.Project)
		if err != nil {
			cc.storage.Close()
			return nil, xerrors.Errorf("failed to build bigquery client for %s: %w", cfg.Project, err)
		}
		bq.Location = cfg.Location
		cc.warehouse = &bigQueryWarehouse{client: bq}
	}

	return cc, nil
}

func newClientContext(cfg Config) *ClientContext {
	return &ClientContext{
		Config:      cfg,
		logger:      zerolog.New(os.Stderr).With().Timestamp().Logger(),
		concurrency: defaultConcurrency,
	}
}

// Logger returns the logger configured through options.
func (cc *ClientContext) Logger() *zerolog.Logger {
	return &cc.logger
}

// WithLogger returns ctx carrying the configured logger unless ctx already
// has one.
func (cc *ClientContext) WithLogger(ctx context.Context) context.Context {
	if l := log.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return ctx
	}
	return cc.logger.WithContext(ctx)
}

// Setup creates the bucket and the dataset. Both already existing is fine.
func (cc *ClientContext) Setup(ctx context.Context) error {
	ctx = cc.WithLogger(ctx)
	l := log.Ctx(ctx)

	if err := cc.storage.CreateBucket(ctx, cc.Project, cc.Bucket, cc.Location); err != nil {
		if !isConflict(err) {
			return xerrors.Errorf("failed to create bucket %s: %w", cc.Bucket, err)
		}
		l.Info().Str("bucket", cc.Bucket).Msg("bucket already exists")
	}

	if err := cc.warehouse.CreateDataset(ctx, cc.Dataset, cc.Location); err != nil {
		if !isConflict(err) {
			return xerrors.Errorf("failed to create dataset %s: %w", cc.Dataset, err)
		}
		l.Info().Str("dataset", cc.Dataset).Msg("dataset already exists")
	}

	l.Debug().Str("bucket", cc.Bucket).Str("dataset", cc.Dataset).Msg("setup finished")

	return nil
}

// Teardown deletes every object of the bucket, the bucket itself and the
// dataset with its tables. Resources already gone are ignored.
func (cc *ClientContext) Teardown(ctx context.Context) error {
	ctx = cc.WithLogger(ctx)
	l := log.Ctx(ctx)

	names, err := cc.storage.List(ctx, cc.Bucket, "")
	if err != nil && !isNotFound(err) {
		return xerrors.Errorf("failed to list objects of %s: %w", cc.Bucket, err)
	}

	for _, n := range names {
		if err := cc.storage.DeleteObject(ctx, cc.Bucket, n); err != nil && !isNotFound(err) {
			return xerrors.Errorf("failed to delete %s: %w", gsURI(cc.Bucket, n), err)
		}
	}
	l.Debug().Int("objects", len(names)).Msg("objects deleted")

	if err := cc.storage.DeleteBucket(ctx, cc.Bucket); err != nil && !isNotFound(err) {
		return xerrors.Errorf("failed to delete bucket %s: %w", cc.Bucket, err)
	}

	if err := cc.warehouse.DeleteDataset(ctx, cc.Dataset); err != nil && !isNotFound(err) {
		return xerrors.Errorf("failed to delete dataset %s: %w", cc.Dataset, err)
	}

	l.Info().Str("bucket", cc.Bucket).Str("dataset", cc.Dataset).Msg("teardown finished")

	return nil
}

// Close releases the underlying clients.
func (cc *ClientContext) Close() error {
	var errs []error

	if cc.storage != nil {
		if err := cc.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if cc.warehouse != nil {
		if err := cc.warehouse.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return xerrors.Errorf("failed to close clients: %w", errors.Join(errs...))
	}

	return nil
}
