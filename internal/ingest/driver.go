package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/whatsview/whatsview-backend/internal/models"
	"github.com/whatsview/whatsview-backend/internal/services"
	"github.com/whatsview/whatsview-backend/internal/webhook"
)

// Stats are the counters a run reports. They are cumulative across every payload the
// driver processed and are emitted verbatim by the batch CLI and the webhook API.
type Stats struct {
	FilesRead                   int `json:"files_read"`
	MessagesUpserted            int `json:"messages_upserted"`
	StatusesApplied             int `json:"statuses_applied"`
	StatusSkippedMissingMessage int `json:"status_skipped_missing_message"`
}

// Notify is called for each newly inserted message, after its persistence write has
// completed. The live API path uses it to trigger fan-out; the batch CLI passes nil.
type Notify func(ctx context.Context, msg *models.Message)

// Driver runs payloads through classification, extraction and reconciliation.
type Driver struct {
	rec    *services.Reconciler
	notify Notify
}

func NewDriver(rec *services.Reconciler, notify Notify) *Driver {
	return &Driver{rec: rec, notify: notify}
}

// ProcessPayload reconciles a single payload into the store, updating stats. Payloads
// that don't match the expected webhook shape are skipped silently. Malformed items
// only ever skip themselves; a returned error always means the store failed, and the
// caller should abort the run.
func (d *Driver) ProcessPayload(ctx context.Context, payload webhook.Payload, stats *Stats) error {
	value, ok := webhook.FindValueBlock(payload)
	if !ok {
		return nil
	}

	// A single block may carry both messages and statuses; both paths run.
	if value.IsMessagePayload() {
		if msg, ok := webhook.ExtractMessage(value); ok {
			inserted, err := d.rec.UpsertMessage(ctx, msg)
			if err != nil {
				return err
			}
			if inserted {
				stats.MessagesUpserted++
				if d.notify != nil {
					d.notify(ctx, msg)
				}
			}
		}
	}

	if value.IsStatusPayload() {
		for _, update := range webhook.ExtractStatuses(value) {
			outcome, err := d.rec.ApplyStatus(ctx, update)
			if err != nil {
				return err
			}
			switch outcome {
			case services.StatusApplied:
				stats.StatusesApplied++
			case services.StatusSkippedMissingTarget:
				stats.StatusSkippedMissingMessage++
			}
		}
	}

	return nil
}

// IngestDirectory processes every *.json file under dir in name order. Files that
// can't be read or parsed count as read and are skipped; a store failure aborts the
// rest of the run (the partial stats are still returned). Re-running the same
// directory is safe: creates are insert-if-absent and status merges are idempotent
// for identical events.
func (d *Driver) IngestDirectory(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return stats, fmt.Errorf("list payload files: %w", err)
	}

	for _, path := range files {
		stats.FilesRead++

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var payload webhook.Payload
		if err := json.Unmarshal(data, &payload); err != nil {
			continue
		}

		if err := d.ProcessPayload(ctx, payload, &stats); err != nil {
			return stats, fmt.Errorf("process %s: %w", filepath.Base(path), err)
		}
	}

	return stats, nil
}
