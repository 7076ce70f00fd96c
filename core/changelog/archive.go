package changelog

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"commscivet/core/reconcile"
	"commscivet/core/storage"
)

// Report is the archived outcome of one run.
type Report struct {
	RunID      string                   `json:"run_id"`
	Dataset    string                   `json:"dataset"`
	Source     string                   `json:"source,omitempty"`
	ObservedAt time.Time                `json:"observed_at"`
	Summary    *reconcile.PlanSummary   `json:"summary,omitempty"`
	Executed   int                      `json:"executed"`
	Changes    []reconcile.ChangeRecord `json:"changes"`
}

// ReportKey builds the object key of a run report, e.g.
// reports/observations/2024-05-17-<run>.json.
func ReportKey(prefix, dataset, runID string, observedAt time.Time) string {
	return path.Join(prefix, dataset, observedAt.Format("2006-01-02")+"-"+runID+".json")
}

// Archive uploads the report as a JSON object and returns its key.
func Archive(ctx context.Context, client storage.Client, bucket, prefix string, report Report) (string, error) {
	if client == nil {
		return "", fmt.Errorf("archive %s: storage not configured", report.RunID)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report %s: %w", report.RunID, err)
	}

	key := ReportKey(prefix, report.Dataset, report.RunID, report.ObservedAt)
	if err := storage.WriteObject(ctx, client, bucket, key, data, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}
