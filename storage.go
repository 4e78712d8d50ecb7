package bqloadbench

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"golang.org/x/xerrors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// ObjectStore is the part of Cloud Storage the benchmark depends on.
type ObjectStore interface {
	CreateBucket(ctx context.Context, project, bucket, location string) error
	Upload(ctx context.Context, bucket, localPath, name string) error
	Copy(ctx context.Context, bucket, src, dst string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	DeleteObject(ctx context.Context, bucket, name string) error
	DeleteBucket(ctx context.Context, bucket string) error
	Close() error
}

type gcsStore struct {
	client *storage.Client
}

func (s *gcsStore) CreateBucket(ctx context.Context, project, bucket, location string) error {
	return s.client.Bucket(bucket).Create(ctx, project, &storage.BucketAttrs{Location: location})
}

func (s *gcsStore) Upload(ctx context.Context, bucket, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return xerrors.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	w := s.client.Bucket(bucket).Object(name).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return xerrors.Errorf("failed to write %s: %w", gsURI(bucket, name), err)
	}

	if err := w.Close(); err != nil {
		return xerrors.Errorf("failed to finalize %s: %w", gsURI(bucket, name), err)
	}

	return nil
}

func (s *gcsStore) Copy(ctx context.Context, bucket, src, dst string) error {
	b := s.client.Bucket(bucket)
	if _, err := b.Object(dst).CopierFrom(b.Object(src)).Run(ctx); err != nil {
		return err
	}
	return nil
}

func (s *gcsStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	names := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, attrs.Name)
	}

	return names, nil
}

func (s *gcsStore) DeleteObject(ctx context.Context, bucket, name string) error {
	return s.client.Bucket(bucket).Object(name).Delete(ctx)
}

func (s *gcsStore) DeleteBucket(ctx context.Context, bucket string) error {
	return s.client.Bucket(bucket).Delete(ctx)
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}

// gsURI returns the full path of a storage object beginning with gs://.
func gsURI(bucket, name string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, name)
}

func isConflict(err error) bool {
	return hasHTTPStatus(err, http.StatusConflict)
}

func isNotFound(err error) bool {
	if xerrors.Is(err, storage.ErrBucketNotExist) || xerrors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	return hasHTTPStatus(err, http.StatusNotFound)
}

func hasHTTPStatus(err error, code int) bool {
	var e *googleapi.Error
	return xerrors.As(err, &e) && e.Code == code
}
