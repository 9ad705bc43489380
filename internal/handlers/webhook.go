package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/whatsview/whatsview-backend/internal/ingest"
	"github.com/whatsview/whatsview-backend/internal/webhook"
)

// IngestWebhook accepts one raw webhook payload and runs it through the same
// classify/extract/reconcile path as the batch CLI. Newly inserted messages are
// fanned out to live viewers. The response carries the run's counters; a payload
// that parses as JSON but doesn't match the webhook shape is a successful no-op,
// not an error.
func (a *API) IngestWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhook.Payload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats := ingest.Stats{FilesRead: 1}
	if err := a.driver.ProcessPayload(ctx, payload, &stats); err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to persist payload")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// decodeJSONBody decodes a request body, rejecting trailing garbage.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
