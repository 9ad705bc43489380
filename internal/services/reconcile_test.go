package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whatsview/whatsview-backend/internal/models"
)

func strp(s string) *string { return &s }

func testMessage(id string) *models.Message {
	return &models.Message{
		ID:         id,
		WaID:       strp("222"),
		Direction:  models.DirectionOutbound,
		Text:       strp("hello"),
		Status:     models.StatusSent,
		Timestamps: models.Timestamps{Whatsapp: 900},
	}
}

func TestUpsertMessageInsertIfAbsent(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	inserted, err := rec.UpsertMessage(ctx, testMessage("m1"))
	require.NoError(t, err)
	require.True(t, inserted)

	// A duplicate create leaves the existing record untouched.
	dup := testMessage("m1")
	dup.Text = strp("mutated")
	inserted, err = rec.UpsertMessage(ctx, dup)
	require.NoError(t, err)
	require.False(t, inserted)

	got, ok := store.get("m1")
	require.True(t, ok)
	require.Equal(t, "hello", *got.Text)
	require.Equal(t, 1, store.count())
}

func TestUpsertMessageEmptyID(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)

	inserted, err := rec.UpsertMessage(context.Background(), testMessage(""))
	require.NoError(t, err)
	require.False(t, inserted)
	require.Equal(t, 0, store.count())

	inserted, err = rec.UpsertMessage(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestApplyStatusAdvances(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	_, err := rec.UpsertMessage(ctx, testMessage("m1"))
	require.NoError(t, err)

	outcome, err := rec.ApplyStatus(ctx, models.StatusUpdate{
		ID:        "m1",
		Status:    models.StatusDelivered,
		Timestamp: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, StatusApplied, outcome)

	got, _ := store.get("m1")
	require.Equal(t, models.StatusDelivered, got.Status)
	require.NotNil(t, got.Timestamps.Delivered)
	require.Equal(t, int64(1000), *got.Timestamps.Delivered)
}

func TestApplyStatusOutOfOrderStillRecordsTimestamp(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	msg := testMessage("m1")
	msg.Status = models.StatusDelivered
	_, err := rec.UpsertMessage(ctx, msg)
	require.NoError(t, err)

	// A late "sent" event must not regress the status, but its own timestamp field
	// is still written.
	outcome, err := rec.ApplyStatus(ctx, models.StatusUpdate{
		ID:        "m1",
		Status:    models.StatusSent,
		Timestamp: 500,
	})
	require.NoError(t, err)
	require.Equal(t, StatusApplied, outcome)

	got, _ := store.get("m1")
	require.Equal(t, models.StatusDelivered, got.Status)
	require.NotNil(t, got.Timestamps.Sent)
	require.Equal(t, int64(500), *got.Timestamps.Sent)
}

func TestApplyStatusMissingTarget(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)

	outcome, err := rec.ApplyStatus(context.Background(), models.StatusUpdate{
		ID:     "ghost",
		Status: models.StatusRead,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSkippedMissingTarget, outcome)
	// The event is dropped, never buffered into a record of its own.
	require.Equal(t, 0, store.count())
}

func TestApplyStatusInvalid(t *testing.T) {
	rec := NewReconciler(newMemStore())

	outcome, err := rec.ApplyStatus(context.Background(), models.StatusUpdate{
		Status: models.StatusRead,
	})
	require.NoError(t, err)
	require.Equal(t, StatusInvalid, outcome)
}

func TestApplyStatusResolvesMetaMsgID(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	_, err := rec.UpsertMessage(ctx, testMessage("m1"))
	require.NoError(t, err)

	outcome, err := rec.ApplyStatus(ctx, models.StatusUpdate{
		MetaMsgID: "m1",
		Status:    models.StatusRead,
		Timestamp: 2000,
	})
	require.NoError(t, err)
	require.Equal(t, StatusApplied, outcome)

	got, _ := store.get("m1")
	require.Equal(t, models.StatusRead, got.Status)
}

func TestApplyStatusBackfillsCorrelationIDs(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	msg := testMessage("m1")
	msg.GsID = strp("gs-old")
	_, err := rec.UpsertMessage(ctx, msg)
	require.NoError(t, err)

	_, err = rec.ApplyStatus(ctx, models.StatusUpdate{
		ID:             "m1",
		Status:         models.StatusDelivered,
		ConversationID: "conv-1",
		MetaMsgID:      "wamid.1",
	})
	require.NoError(t, err)

	got, _ := store.get("m1")
	require.Equal(t, "conv-1", *got.ConversationID)
	require.Equal(t, "wamid.1", *got.MetaMsgID)
	// Absent update values keep what the record already had.
	require.Equal(t, "gs-old", *got.GsID)
}

func TestApplyStatusStoreErrorsPropagate(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	_, err := rec.UpsertMessage(ctx, testMessage("m1"))
	require.NoError(t, err)

	boom := errors.New("connection reset")

	store.findErr = boom
	_, err = rec.ApplyStatus(ctx, models.StatusUpdate{ID: "m1", Status: models.StatusRead})
	require.ErrorIs(t, err, boom)
	store.findErr = nil

	store.replaceErr = boom
	_, err = rec.ApplyStatus(ctx, models.StatusUpdate{ID: "m1", Status: models.StatusRead})
	require.ErrorIs(t, err, boom)

	store.insertErr = boom
	_, err = rec.UpsertMessage(ctx, testMessage("m2"))
	require.ErrorIs(t, err, boom)
}

// Concurrent status updates to the same id follow read-merge-write and are
// explicitly best-effort: the recorded status still never regresses, because every
// interleaving promotes from some previously persisted value. This pins down the
// boundary condition rather than asserting full linearization.
func TestApplyStatusConcurrentSameTarget(t *testing.T) {
	store := newMemStore()
	rec := NewReconciler(store)
	ctx := context.Background()

	_, err := rec.UpsertMessage(ctx, testMessage("m1"))
	require.NoError(t, err)

	updates := []models.StatusUpdate{
		{ID: "m1", Status: models.StatusDelivered, Timestamp: 1000},
		{ID: "m1", Status: models.StatusRead, Timestamp: 2000},
		{ID: "m1", Status: models.StatusSent, Timestamp: 500},
	}

	done := make(chan struct{})
	for _, u := range updates {
		go func(u models.StatusUpdate) {
			defer func() { done <- struct{}{} }()
			_, _ = rec.ApplyStatus(ctx, u)
		}(u)
	}
	for range updates {
		<-done
	}

	got, _ := store.get("m1")
	require.Contains(t, []models.Status{models.StatusDelivered, models.StatusRead}, got.Status)
}
