package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/whatsview/whatsview-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux, api *handlers.API) {
	// Conversation + message read APIs
	r.Get("/api/conversations", api.ListConversations)
	r.Get("/api/messages", api.ListMessages)

	// Live send path (persist, then fan out)
	r.Post("/api/messages", api.CreateMessage)

	// Webhook ingestion (single payload, same reconciliation as the batch CLI)
	r.Post("/api/webhook", api.IngestWebhook)

	// WebSocket endpoint for live insert events
	r.Get("/ws", api.LiveUpdates)
}
