// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so exports can be
// fetched from a bucket and run reports archived to one, against either AWS S3
// or a self-hosted MinIO instance. The Client interface is mocked in
// core/storage/mocks for unit tests.
//
// # Helpers
//
//   - EnsureBucket: creates the target bucket on first use.
//   - ReadObject / WriteObject: whole-object download and upload.
//   - LatestObject: newest export under a prefix, filtered by extension.
//   - PruneObjects: keeps the newest N objects under a prefix.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	obj, err := storage.LatestObject(ctx, client, cfg.Storage.Bucket, "exports/", ".csv", ".xlsx")
//	data, err := storage.ReadObject(ctx, client, cfg.Storage.Bucket, obj.Key)
package storage
