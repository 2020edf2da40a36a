package store

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// ObjectReader opens objects by name. BucketObjects adapts a Cloud Storage
// bucket to it.
type ObjectReader interface {
	NewReader(ctx context.Context, object string) (io.ReadCloser, error)
}

// BucketObjects returns an ObjectReader for the objects in bucket.
func BucketObjects(bucket *storage.BucketHandle) ObjectReader {
	return bucketObjects{bucket: bucket}
}

type bucketObjects struct {
	bucket *storage.BucketHandle
}

func (b bucketObjects) NewReader(ctx context.Context, object string) (io.ReadCloser, error) {
	reader, err := b.bucket.Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// GCS reads templates from objects in a Cloud Storage bucket. A GCS must be
// instantiated through NewGCS, its empty value is not usable.
type GCS struct {
	objects ObjectReader
	prefix  string
}

// NewGCS returns a GCS that reads templates through objects, resolving
// template paths against prefix. Use BucketObjects to read from a bucket.
func NewGCS(objects ObjectReader, prefix string) *GCS {
	return &GCS{objects: objects, prefix: prefix}
}

// ReadTemplate returns the contents of the object at p. A missing object
// returns an error wrapping storage.ErrObjectNotExist.
func (s *GCS) ReadTemplate(ctx context.Context, p string) ([]byte, error) {
	name := resolve(s.prefix, p)
	reader, err := s.objects.NewReader(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error opening object %q: %w", name, err)
	}
	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading object %q: %w", name, err)
	}
	return contents, nil
}
