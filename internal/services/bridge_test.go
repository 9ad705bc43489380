package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whatsview/whatsview-backend/internal/models"
)

// Without Redis the bridge must fall back to broadcasting on the local hub, and the
// triggering caller never sees a delivery failure.
func TestBridgePublishInsertLocalFallback(t *testing.T) {
	hub := NewHub()
	sub := &fakeSubscriber{}
	failing := &fakeSubscriber{fail: true}
	hub.Connect(sub)
	hub.Connect(failing)

	bridge := NewBridge(hub)
	bridge.PublishInsert(context.Background(), &models.Message{ID: "m1"})

	require.Equal(t, 1, sub.received())
	require.Equal(t, 1, hub.Subscribers())
	require.True(t, failing.closed)
}
