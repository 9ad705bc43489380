package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/whatsview/whatsview-backend/internal/models"
	"github.com/whatsview/whatsview-backend/internal/services"
)

// ListConversations returns one summary row per counterparty, most recent first.
func (a *API) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	convs, err := services.LoadConversationsWithCache(ctx, a.msgs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

// ListMessages returns a conversation's messages oldest-first.
// Query params:
//
//	wa_id (required)
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	waID := r.URL.Query().Get("wa_id")
	if waID == "" {
		writeError(w, http.StatusBadRequest, "wa_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msgs, err := a.msgs.ListByWaID(ctx, waID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type createMessageRequest struct {
	WaID string `json:"waId"`
	Text string `json:"text"`
}

// CreateMessage handles the live send path: persist an outbound message with a
// locally generated id, then fan it out. Either the record is persisted and fan-out
// attempted, or the request fails with nothing written and nothing broadcast.
func (a *API) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	waID := strings.TrimSpace(req.WaID)
	text := strings.TrimSpace(req.Text)
	if n := utf8.RuneCountInString(waID); n < 5 || n > 20 {
		writeError(w, http.StatusBadRequest, "waId must be 5-20 characters")
		return
	}
	if n := utf8.RuneCountInString(text); n == 0 || n > 2000 {
		writeError(w, http.StatusBadRequest, "text must be 1-2000 characters")
		return
	}

	now := time.Now().Unix()
	msgType := "text"
	msg := &models.Message{
		ID:        "local-" + uuid.NewString(),
		WaID:      &waID,
		Direction: models.DirectionOutbound,
		Text:      &text,
		Type:      &msgType,
		Status:    models.StatusSent,
		Timestamps: models.Timestamps{
			Whatsapp: now,
			Sent:     &now,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := a.rec.UpsertMessage(ctx, msg); err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to create message")
		return
	}

	a.announceInsert(ctx, msg)
	writeJSON(w, http.StatusCreated, msg)
}
