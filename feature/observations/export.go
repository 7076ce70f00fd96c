package observations

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"commscivet/core/reconcile"
	"commscivet/core/sheet"
	"commscivet/core/storage"
	"commscivet/core/utils"

	"go.uber.org/zap"
)

// Columns derived from or added to the export.
const (
	ColumnFeatureLatitude  = "feature_latitude"
	ColumnFeatureLongitude = "feature_longitude"
	ColumnRecordStatus     = "record_status"
	ColumnImportDate       = "import_date"
)

// Values written to the record_status column.
const (
	RecordStatusNew     = "new"
	RecordStatusUpdated = "updated"
)

var exportExtensions = []string{".csv", ".xlsx"}

// Export selects where the current snapshot comes from. The first set
// field wins: Data, Path, Object. When none is set the newest export under
// the configured prefix is used.
type Export struct {
	// Name is the file name of uploaded Data; its extension picks the format.
	Name string
	Data []byte
	Path string
	// Object is a key in the bucket.
	Object string
}

// Describe names the export for logs and reports.
func (e Export) Describe() string {
	switch {
	case len(e.Data) > 0:
		return "upload:" + e.Name
	case e.Path != "":
		return "file:" + e.Path
	case e.Object != "":
		return "object:" + e.Object
	}
	return "latest"
}

// PrepareExport returns copies of the export records with feature
// coordinates set: the private coordinate when present, the public one
// otherwise. The input is not modified.
func PrepareExport(snapshot reconcile.Snapshot) reconcile.Snapshot {
	out := make(reconcile.Snapshot, 0, len(snapshot))
	for _, rec := range snapshot {
		cp := make(reconcile.Record, len(rec)+2)
		for k, v := range rec {
			cp[k] = v
		}
		cp[ColumnFeatureLatitude] = firstPresent(rec["private_latitude"], rec["latitude"])
		cp[ColumnFeatureLongitude] = firstPresent(rec["private_longitude"], rec["longitude"])
		out = append(out, cp)
	}
	return out
}

func firstPresent(values ...any) any {
	for _, v := range values {
		if utils.IsNil(v) {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// exportSource reads the export on every snapshot request. Tracked values
// are rendered for the store's column types.
func (s *Service) exportSource(exp Export, store *Store) reconcile.Source {
	return reconcile.SourceFunc(func(ctx context.Context, identifierField string, fields []string) (reconcile.Snapshot, error) {
		table, err := s.readExport(ctx, exp)
		if err != nil {
			return nil, err
		}
		if !table.HasColumn(identifierField) {
			return nil, fmt.Errorf("export %s has no %s column", exp.Describe(), identifierField)
		}
		return store.Render(ctx, PrepareExport(table.Records()), fields)
	})
}

func (s *Service) readExport(ctx context.Context, exp Export) (*sheet.Table, error) {
	switch {
	case len(exp.Data) > 0:
		return sheet.Read(exp.Name, bytes.NewReader(exp.Data))
	case exp.Path != "":
		return sheet.ReadFile(exp.Path)
	}

	if s.client == nil {
		return nil, fmt.Errorf("no export given and storage is not configured")
	}

	key := exp.Object
	if key == "" {
		latest, err := storage.LatestObject(ctx, s.client, s.bucket, s.cfg.ExportPrefix, exportExtensions...)
		if err != nil {
			return nil, err
		}
		key = latest.Key
		s.logger.Info("Using latest export", zap.String("object", key), zap.Time("modified", latest.LastModified))
	}

	data, err := storage.ReadObject(ctx, s.client, s.bucket, key)
	if err != nil {
		return nil, err
	}
	return sheet.Read(path.Base(key), bytes.NewReader(data))
}
