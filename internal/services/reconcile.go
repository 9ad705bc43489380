package services

import (
	"context"

	"github.com/whatsview/whatsview-backend/internal/models"
)

// MessageStore is the persistence surface the reconciler needs. The production
// implementation is store.Messages; tests substitute an in-memory fake.
//
// InsertIfAbsent MUST be atomic at the storage layer (a single conditional-insert
// primitive such as Mongo's $setOnInsert upsert). The reconciler does not add its
// own locking around it.
type MessageStore interface {
	FindByID(ctx context.Context, id string) (*models.Message, error)
	InsertIfAbsent(ctx context.Context, msg *models.Message) (bool, error)
	Replace(ctx context.Context, msg *models.Message) error
}

// StatusOutcome classifies the result of applying one status update.
type StatusOutcome int

const (
	// StatusInvalid: the update carries no usable target id at all.
	StatusInvalid StatusOutcome = iota
	// StatusSkippedMissingTarget: no message with the update's id exists yet. The
	// event is dropped, not buffered; a status arriving before its message is a
	// legitimate ordering condition, and replaying the batch later repairs it.
	StatusSkippedMissingTarget
	// StatusApplied: the target message was found and the merged record persisted.
	StatusApplied
)

// Reconciler merges webhook events into durable message records.
type Reconciler struct {
	store MessageStore
}

func NewReconciler(store MessageStore) *Reconciler {
	return &Reconciler{store: store}
}

// UpsertMessage creates the message if no record with its id exists and reports
// whether a new record was created. A duplicate create leaves the existing record
// untouched, so re-ingesting the same source event is a no-op. Messages without an
// id are dropped.
func (r *Reconciler) UpsertMessage(ctx context.Context, msg *models.Message) (bool, error) {
	if msg == nil || msg.ID == "" {
		return false, nil
	}
	return r.store.InsertIfAbsent(ctx, msg)
}

// ApplyStatus merges one status update into its target message. The recorded status
// only moves forward through the sent -> delivered -> read order, but the update's
// own timestamp field is written regardless, so a late-arriving "sent" event still
// fills in timestamps.sent under an already-"delivered" message.
//
// Concurrent updates to the same message id from different requests follow
// read-merge-write and can race; that is an accepted limitation of this path, unlike
// the create path which is atomic.
func (r *Reconciler) ApplyStatus(ctx context.Context, update models.StatusUpdate) (StatusOutcome, error) {
	id := update.TargetID()
	if id == "" {
		return StatusInvalid, nil
	}

	msg, err := r.store.FindByID(ctx, id)
	if err != nil {
		return StatusInvalid, err
	}
	if msg == nil {
		return StatusSkippedMissingTarget, nil
	}

	msg.Status = models.PromoteStatus(msg.Status, update.Status)

	// Last write wins per timestamp field, independent of the status promotion.
	ts := update.Timestamp
	switch update.Status {
	case models.StatusSent:
		msg.Timestamps.Sent = &ts
	case models.StatusDelivered:
		msg.Timestamps.Delivered = &ts
	case models.StatusRead:
		msg.Timestamps.Read = &ts
	}

	// Backfill correlation ids: the update's value wins when present, existing
	// values are never cleared.
	if update.ConversationID != "" {
		msg.ConversationID = &update.ConversationID
	}
	if update.GsID != "" {
		msg.GsID = &update.GsID
	}
	if update.MetaMsgID != "" {
		msg.MetaMsgID = &update.MetaMsgID
	}

	if err := r.store.Replace(ctx, msg); err != nil {
		return StatusInvalid, err
	}
	return StatusApplied, nil
}
