package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/whatsview/whatsview-backend/internal/ingest"
	"github.com/whatsview/whatsview-backend/internal/models"
	"github.com/whatsview/whatsview-backend/internal/services"
	"github.com/whatsview/whatsview-backend/internal/store"
)

// API bundles the handlers' collaborators. One instance is built in main and wired
// into the router; the hub is passed in explicitly rather than living as a package
// global so broadcast ownership stays visible.
type API struct {
	msgs   *store.Messages
	rec    *services.Reconciler
	hub    *services.Hub
	bridge *services.Bridge
	driver *ingest.Driver
}

func New(msgs *store.Messages, rec *services.Reconciler, hub *services.Hub, bridge *services.Bridge) *API {
	a := &API{msgs: msgs, rec: rec, hub: hub, bridge: bridge}
	a.driver = ingest.NewDriver(rec, a.announceInsert)
	return a
}

// announceInsert runs after a new message's persistence write has completed: drop
// the stale conversation summary and fan the message out to live viewers.
func (a *API) announceInsert(ctx context.Context, msg *models.Message) {
	services.InvalidateConversationsCache(ctx)
	a.bridge.PublishInsert(ctx, msg)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]interface{}{
		"success": false,
		"message": msg,
	})
}
