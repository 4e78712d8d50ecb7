package bqloadbench

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// ObjectName returns the name under which Replicate stores a local file.
func ObjectName(folder, localPath string) string {
	return path.Join(folder, filepath.Base(localPath))
}

// Replicate uploads every regular file of dir into folder of the bucket and
// returns the object names, sorted. Existing objects are overwritten.
func Replicate(ctx context.Context, cc *ClientContext, dir, folder string) ([]string, error) {
	ctx = cc.WithLogger(ctx)
	l := log.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, xerrors.Errorf("failed to read directory %s: %w", dir, err)
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(cc.concurrency)

	names := []string{}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		local := filepath.Join(dir, e.Name())
		name := ObjectName(folder, local)
		names = append(names, name)

		eg.Go(func() error {
			if err := cc.storage.Upload(ectx, cc.Bucket, local, name); err != nil {
				return xerrors.Errorf("failed to upload %s: %w", local, err)
			}
			l.Debug().Str("object", gsURI(cc.Bucket, name)).Msg("uploaded")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(names)
	l.Info().Int("objects", len(names)).Str("folder", folder).Msg("replicated")

	return names, nil
}
