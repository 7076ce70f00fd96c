package observations

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"commscivet/core/database"
	"commscivet/core/reconcile"
	"commscivet/core/storage"
	"commscivet/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var runDate = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

const exportCSV = "\ufeffid,scientific_name,quality_grade,latitude,private_latitude,longitude,private_longitude,user_login\n" +
	"1,Quercus alba,research,41.5,,-77.1,,ann\n" +
	"2,Acer rubrum,research,40.1,,-76,,bo\n" +
	"3,Tsuga canadensis,research,40.9,40.95,-75,-75.05,cy\n"

func testConfig() Config {
	return Config{
		Enabled:          true,
		Table:            "comm_sci_vet",
		IdentifierField:  "id",
		TrackedFields:    []string{"scientific_name", "quality_grade", "feature_latitude"},
		ExportPrefix:     "exports/observations",
		ImportDateLayout: "01/02/06",
		ReportPrefix:     "reports",
		ReportRetention:  2,
	}
}

func setupDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE comm_sci_vet (
		id INTEGER PRIMARY KEY,
		scientific_name TEXT,
		quality_grade TEXT,
		feature_latitude REAL,
		record_status TEXT,
		import_date TEXT
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO comm_sci_vet (id, scientific_name, quality_grade, feature_latitude, record_status, import_date) VALUES
		(1, 'Quercus alba', 'research', 41.5, 'new', '01/02/24'),
		(2, 'Acer rubrum', 'needs_id', 40.1, 'new', '01/02/24'),
		(4, 'Pinus strobus', 'research', 42.0, 'new', '01/02/24')`).Error)
	return db
}

func newTestService(t *testing.T, db *gorm.DB, client storage.Client) *Service {
	t.Helper()
	svc := NewService(testConfig(), db, client, "vet", nil, 2)
	svc.now = func() time.Time { return runDate }
	return svc
}

type row struct {
	ID             int
	ScientificName string
	QualityGrade   string
	RecordStatus   string
	ImportDate     string
}

func loadRows(t *testing.T, db *gorm.DB) map[int]row {
	var rows []row
	require.NoError(t, db.Table("comm_sci_vet").Order("id").Find(&rows).Error)
	out := make(map[int]row, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out
}

func upload() Export {
	return Export{Name: "export.csv", Data: []byte(exportCSV)}
}

func TestService_Plan(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, nil)

	plan, err := svc.Plan(context.Background(), upload(), false)
	require.NoError(t, err)

	assert.Equal(t, reconcile.PlanSummary{
		TotalItems: 4, New: 1, Updated: 1, Unchanged: 1, Missing: 1, FieldUpdates: 1,
		InsertActions: 1, UpdateActions: 1,
	}, plan.Summary)

	require.Len(t, plan.Changes, 3)
	assert.Equal(t, reconcile.ChangeRecord{Identifier: "3", ChangeType: reconcile.ChangeAddition, NewValue: "3", ObservedAt: runDate}, plan.Changes[0])
	assert.Equal(t, reconcile.ChangeRecord{Identifier: "4", ChangeType: reconcile.ChangeDeletion, OldValue: int64(4), ObservedAt: runDate}, plan.Changes[1])
	assert.Equal(t, reconcile.ChangeRecord{
		Identifier: "2", ChangeType: reconcile.ChangeFieldUpdate, FieldName: "quality_grade",
		OldValue: "needs_id", NewValue: "research", ObservedAt: runDate,
	}, plan.Changes[2])

	// nothing written
	assert.Equal(t, "needs_id", loadRows(t, db)[2].QualityGrade)
}

func TestService_RunApplies(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, nil)

	var progress []int
	result, err := svc.Run(context.Background(), RunOptions{
		Export:    upload(),
		Purge:     true,
		Confirmed: true,
		Progress:  func(done int) { progress = append(progress, done) },
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Executed)
	assert.True(t, result.Recorded)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, "upload:export.csv", result.Source)

	rows := loadRows(t, db)
	require.Len(t, rows, 3)
	assert.NotContains(t, rows, 4)

	assert.Equal(t, row{ID: 1, ScientificName: "Quercus alba", QualityGrade: "research", RecordStatus: "new", ImportDate: "01/02/24"}, rows[1])
	assert.Equal(t, row{ID: 2, ScientificName: "Acer rubrum", QualityGrade: "research", RecordStatus: "updated", ImportDate: "05/17/24"}, rows[2])
	assert.Equal(t, row{ID: 3, ScientificName: "Tsuga canadensis", QualityGrade: "research", RecordStatus: "new", ImportDate: "05/17/24"}, rows[3])

	var lat float64
	require.NoError(t, db.Table("comm_sci_vet").Select("feature_latitude").Where("id = ?", 3).Scan(&lat).Error)
	assert.InDelta(t, 40.95, lat, 1e-9)

	entries, err := svc.Changes(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "3", entries[0].Identifier)
	assert.Equal(t, "4", entries[1].Identifier)
	assert.Equal(t, "quality_grade", *entries[2].FieldName)

	// a second run over the same export finds nothing left to do
	again, err := svc.Run(context.Background(), RunOptions{Export: upload(), Purge: true, Confirmed: true})
	require.NoError(t, err)
	assert.Empty(t, again.Plan.Changes)
	assert.Zero(t, again.Executed)
}

func TestService_RunWithoutPurgeKeepsMissing(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, nil)

	result, err := svc.Run(context.Background(), RunOptions{Export: upload(), Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Executed)
	assert.Contains(t, loadRows(t, db), 4)
}

func TestService_RunDryRun(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, nil)

	result, err := svc.Run(context.Background(), RunOptions{Export: upload(), Purge: true, Confirmed: true, DryRun: true})
	require.NoError(t, err)
	assert.Zero(t, result.Executed)
	assert.False(t, result.Recorded)
	assert.Len(t, loadRows(t, db), 3)
	assert.False(t, db.Migrator().HasTable("change_log"))
}

func TestService_RunMalformedExport(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, nil)

	exp := Export{Name: "dup.csv", Data: []byte("id,scientific_name\n1,a\n1,b\n")}
	_, err := svc.Run(context.Background(), RunOptions{Export: exp, Confirmed: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrMalformedRecord)

	var mErr *reconcile.MalformedRecordError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, reconcile.SideNew, mErr.Side)
	assert.Equal(t, 1, mErr.Index)
}

func TestService_ExportWithoutIdentifier(t *testing.T) {
	svc := newTestService(t, setupDB(t), nil)

	_, err := svc.Plan(context.Background(), Export{Name: "x.csv", Data: []byte("name\nfoo\n")}, false)
	assert.ErrorContains(t, err, "has no id column")
}

func TestService_NoExportNoStorage(t *testing.T) {
	svc := newTestService(t, setupDB(t), nil)

	_, err := svc.Plan(context.Background(), Export{}, false)
	assert.ErrorContains(t, err, "storage is not configured")
}

func TestService_LatestObjectExport(t *testing.T) {
	client := new(mocks.Client)
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "exports/observations/old.csv", LastModified: runDate.Add(-48 * time.Hour)}
	ch <- minio.ObjectInfo{Key: "exports/observations/new.csv", LastModified: runDate.Add(-time.Hour)}
	close(ch)

	client.On("ListObjects", mock.Anything, "vet", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
	client.On("GetObject", mock.Anything, "vet", "exports/observations/new.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader(exportCSV)), nil)

	svc := newTestService(t, setupDB(t), client)
	plan, err := svc.Plan(context.Background(), Export{}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Summary.New)
	client.AssertExpectations(t)
}

func TestService_RunArchives(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "vet", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "reports/observations/2024-05-17-")
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)
	client.On("ListObjects", mock.Anything, "vet", minio.ListObjectsOptions{Prefix: "reports/observations/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(closedChannel()))

	svc := newTestService(t, setupDB(t), client)
	result, err := svc.Run(context.Background(), RunOptions{Export: upload(), Archive: true})
	require.NoError(t, err)
	assert.Equal(t, "reports/observations/2024-05-17-"+result.RunID+".json", result.ReportKey)
	client.AssertExpectations(t)
}

func closedChannel() chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func TestService_Status(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(exportCSV), 0o600))

	svc := newTestService(t, setupDB(t), nil)
	svc.cfg.ExportPath = path

	tests := []struct {
		id     string
		status reconcile.Status
	}{
		{"1", reconcile.StatusUnchanged},
		{"2", reconcile.StatusUpdated},
		{"3", reconcile.StatusNew},
		{"4", reconcile.StatusMissing},
		{"99", reconcile.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			result, err := svc.Status(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Status)
		})
	}
}

func TestService_StatusIgnoresUploadedPlans(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(exportCSV), 0o600))

	db := setupDB(t)
	svc := newTestService(t, db, nil)
	svc.cfg.ExportPath = path
	svc.cfg.CacheTTLSeconds = 60
	t.Cleanup(func() { reconcile.InvalidateDataset(Dataset) })

	result, err := svc.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusUnchanged, result.Status)

	casual := Export{Name: "casual.csv", Data: []byte("id,scientific_name,quality_grade,latitude\n1,Quercus alba,casual,41.5\n")}
	plan, err := svc.Plan(context.Background(), casual, false)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Summary.Updated)

	result, err = svc.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusUnchanged, result.Status)

	// applying a plan drops the cached indices of every export
	_, err = svc.Run(context.Background(), RunOptions{Export: casual, Confirmed: true})
	require.NoError(t, err)

	result, err = svc.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusUpdated, result.Status)
}

func TestService_CheckSchema(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db, nil)

	missing, err := svc.CheckSchema(context.Background())
	require.NoError(t, err)
	assert.Empty(t, missing)

	svc.cfg.TrackedFields = append(svc.cfg.TrackedFields, "place_guess")
	missing, err = svc.CheckSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"place_guess"}, missing)

	_, err = NewService(testConfig(), nil, nil, "vet", nil, 0).CheckSchema(context.Background())
	assert.Error(t, err)
}

func TestService_RerunOverTypedColumnsFindsNothing(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE typed_obs (
		id INTEGER PRIMARY KEY,
		observed_on DATE,
		feature_latitude REAL,
		positional_accuracy DECIMAL(10,2),
		record_status TEXT,
		import_date TEXT
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO typed_obs VALUES (1, '2023-01-01', 40.1, 5, 'new', '01/02/24')`).Error)

	cfg := testConfig()
	cfg.Table = "typed_obs"
	cfg.TrackedFields = []string{"observed_on", "feature_latitude", "positional_accuracy"}
	svc := NewService(cfg, db, nil, "vet", nil, 2)
	svc.now = func() time.Time { return runDate }

	exp := Export{Name: "typed.csv", Data: []byte("id,observed_on,latitude,positional_accuracy\n" +
		"1,2023-01-02,40.10,5.00\n" +
		"2,2023-02-03,41.250,12\n")}

	result, err := svc.Run(context.Background(), RunOptions{Export: exp, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Executed)
	require.Len(t, result.Plan.Changes, 2)
	assert.Equal(t, reconcile.ChangeRecord{Identifier: "2", ChangeType: reconcile.ChangeAddition, NewValue: "2", ObservedAt: runDate}, result.Plan.Changes[0])
	assert.Equal(t, reconcile.ChangeRecord{
		Identifier: "1", ChangeType: reconcile.ChangeFieldUpdate, FieldName: "observed_on",
		OldValue: "2023-01-01", NewValue: "2023-01-02", ObservedAt: runDate,
	}, result.Plan.Changes[1])

	plan, err := svc.Plan(context.Background(), exp, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Changes)
	assert.Empty(t, plan.Actions)
	assert.Equal(t, 2, plan.Summary.Unchanged)

	// same-day rerun with writes enabled leaves the rows alone
	again, err := svc.Run(context.Background(), RunOptions{Export: exp, Confirmed: true})
	require.NoError(t, err)
	assert.Zero(t, again.Executed)
}
