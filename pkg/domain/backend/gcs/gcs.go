// Package gcs implements the cold tier on Google Cloud Storage.
//
// One object per entity, under a configurable name prefix. The store talks
// to GCS through the narrow Bucket interface below, so tests can stand in a
// fake without an emulator.
package gcs

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	berr "github.com/strataml/strata/pkg/domain/errors/backenderrors"
)

// Bucket is the slice of the GCS bucket API the cold tier uses.
//
// Production code wraps a *storage.BucketHandle with Wrap.
type Bucket interface {
	Object(name string) Object
	Objects(ctx context.Context, query *storage.Query) ObjectIterator
}

type Object interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	NewWriter(ctx context.Context) io.WriteCloser
	Delete(ctx context.Context) error
	Attrs(ctx context.Context) (*storage.ObjectAttrs, error)
}

type ObjectIterator interface {
	// Next returns the next object. It returns iterator.Done when there are
	// no more.
	Next() (*storage.ObjectAttrs, error)
}

type gcsBucket struct {
	b *storage.BucketHandle
}

// Wrap adapts a *storage.BucketHandle to Bucket.
func Wrap(b *storage.BucketHandle) Bucket {
	return &gcsBucket{b: b}
}

func (g *gcsBucket) Object(name string) Object {
	return &gcsObject{o: g.b.Object(name)}
}

func (g *gcsBucket) Objects(ctx context.Context, query *storage.Query) ObjectIterator {
	return g.b.Objects(ctx, query)
}

type gcsObject struct {
	o *storage.ObjectHandle
}

func (g *gcsObject) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return g.o.NewReader(ctx)
}

func (g *gcsObject) NewWriter(ctx context.Context) io.WriteCloser {
	return g.o.NewWriter(ctx)
}

func (g *gcsObject) Delete(ctx context.Context) error {
	return g.o.Delete(ctx)
}

func (g *gcsObject) Attrs(ctx context.Context) (*storage.ObjectAttrs, error) {
	return g.o.Attrs(ctx)
}

type storeGCS struct {
	bucket Bucket
	prefix string
}

type Option func(*storeGCS) *storeGCS

// WithPrefix puts objects under prefix instead of the bucket root.
func WithPrefix(prefix string) Option {
	return func(s *storeGCS) *storeGCS {
		s.prefix = prefix
		return s
	}
}

func New(bucket Bucket, option ...Option) backend.Store {
	s := &storeGCS{bucket: bucket}
	for _, opt := range option {
		s = opt(s)
	}
	return s
}

func (s *storeGCS) objectName(entityID string) string {
	return s.prefix + entityID
}

func (s *storeGCS) Put(ctx context.Context, entityID string, payload []byte) error {
	w := s.bucket.Object(s.objectName(entityID)).NewWriter(ctx)
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return berr.Unavailable{Tier: domain.TierCold, EntityID: entityID, Cause: err}
	}
	// Close commits the object; storage errors may surface only here.
	if err := w.Close(); err != nil {
		return berr.Unavailable{Tier: domain.TierCold, EntityID: entityID, Cause: err}
	}
	return nil
}

func (s *storeGCS) Get(ctx context.Context, entityID string) ([]byte, error) {
	r, err := s.bucket.Object(s.objectName(entityID)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, berr.Missing{Tier: domain.TierCold, EntityID: entityID}
	}
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierCold, EntityID: entityID, Cause: err}
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, berr.Unavailable{Tier: domain.TierCold, EntityID: entityID, Cause: err}
	}
	return payload, nil
}

func (s *storeGCS) Delete(ctx context.Context, entityID string) error {
	err := s.bucket.Object(s.objectName(entityID)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return berr.Unavailable{Tier: domain.TierCold, EntityID: entityID, Cause: err}
	}
	return nil
}

func (s *storeGCS) Exists(ctx context.Context, entityID string) (bool, error) {
	_, err := s.bucket.Object(s.objectName(entityID)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, berr.Unavailable{Tier: domain.TierCold, EntityID: entityID, Cause: err}
	}
	return true, nil
}

func (s *storeGCS) Entries(ctx context.Context) ([]domain.PayloadEntry, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	entries := []domain.PayloadEntry{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, berr.Unavailable{Tier: domain.TierCold, Cause: err}
		}
		entries = append(entries, domain.PayloadEntry{
			EntityID: strings.TrimPrefix(attrs.Name, s.prefix),
			Size:     attrs.Size,
			StoredAt: attrs.Created,
		})
	}
	return entries, nil
}
