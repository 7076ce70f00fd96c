package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ErrNoObjects is returned when a prefix holds no matching objects.
var ErrNoObjects = errors.New("no matching objects")

// EnsureBucket creates the bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, c Client, bucket string) error {
	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// ReadObject downloads an object fully into memory.
func ReadObject(ctx context.Context, c Client, bucket, key string) ([]byte, error) {
	obj, err := c.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// WriteObject uploads data under key.
func WriteObject(ctx context.Context, c Client, bucket, key string, data []byte, contentType string) error {
	_, err := c.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// listObjects returns every object under prefix whose key ends with one of
// the given extensions. No extensions means no filter.
func listObjects(ctx context.Context, c Client, bucket, prefix string, extensions ...string) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	for obj := range c.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, obj.Err)
		}
		if len(extensions) > 0 && !hasExtension(obj.Key, extensions) {
			continue
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func hasExtension(key string, extensions []string) bool {
	lower := strings.ToLower(key)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// LatestObject returns the most recently modified object under prefix whose
// key ends with one of the given extensions.
func LatestObject(ctx context.Context, c Client, bucket, prefix string, extensions ...string) (minio.ObjectInfo, error) {
	objects, err := listObjects(ctx, c, bucket, prefix, extensions...)
	if err != nil {
		return minio.ObjectInfo{}, err
	}
	if len(objects) == 0 {
		return minio.ObjectInfo{}, fmt.Errorf("%w under %s/%s", ErrNoObjects, bucket, prefix)
	}

	latest := objects[0]
	for _, obj := range objects[1:] {
		if obj.LastModified.After(latest.LastModified) {
			latest = obj
		}
	}
	return latest, nil
}

// PruneObjects keeps the newest keep objects under prefix and removes the rest.
// It returns the number of objects removed.
func PruneObjects(ctx context.Context, c Client, bucket, prefix string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	objects, err := listObjects(ctx, c, bucket, prefix)
	if err != nil {
		return 0, err
	}
	if len(objects) <= keep {
		return 0, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	stale := objects[keep:]

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, obj := range stale {
		objectsCh <- obj
	}
	close(objectsCh)

	var failed []string
	for rErr := range c.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", rErr.ObjectName, rErr.Err))
		}
	}
	if len(failed) > 0 {
		return len(stale) - len(failed), fmt.Errorf("prune had %d errors: %v", len(failed), failed)
	}
	return len(stale), nil
}
