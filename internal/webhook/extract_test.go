package webhook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whatsview/whatsview-backend/internal/models"
)

func valueBlock(t *testing.T, raw string) ValueBlock {
	t.Helper()
	block, ok := FindValueBlock(parsePayload(t, raw))
	require.True(t, ok)
	return block
}

func TestExtractMessageInbound(t *testing.T) {
	msg, ok := ExtractMessage(valueBlock(t, messagePayload))
	require.True(t, ok)

	require.Equal(t, "m1", msg.ID)
	require.Equal(t, models.DirectionInbound, msg.Direction)
	// Inbound: the counterparty is the sender itself, not the listed contact.
	require.NotNil(t, msg.WaID)
	require.Equal(t, "333", *msg.WaID)
	require.NotNil(t, msg.Name)
	require.Equal(t, "Ravi Kumar", *msg.Name)
	require.NotNil(t, msg.Text)
	require.Equal(t, "hello", *msg.Text)

	// Received means read: status and read timestamp are seeded from the event time.
	require.Equal(t, models.StatusRead, msg.Status)
	require.Equal(t, int64(1700000000), msg.Timestamps.Whatsapp)
	require.NotNil(t, msg.Timestamps.Read)
	require.Equal(t, int64(1700000000), *msg.Timestamps.Read)
	require.Nil(t, msg.Timestamps.Sent)
	require.Nil(t, msg.Timestamps.Delivered)

	require.NotNil(t, msg.BusinessPhone)
	require.Equal(t, "111", *msg.BusinessPhone)
	require.NotNil(t, msg.PhoneNumberID)
	require.Equal(t, "pn-1", *msg.PhoneNumberID)
}

func TestExtractMessageOutbound(t *testing.T) {
	raw := `{"metaData":{"entry":[{"changes":[{"value":{
		"metadata": {"display_phone_number": "111"},
		"contacts": [{"wa_id": "222"}],
		"messages": [{"id": "m1", "from": "111", "type": "text", "timestamp": "1700000000", "text": {"body": "hi"}}]
	}}]}]}}`

	msg, ok := ExtractMessage(valueBlock(t, raw))
	require.True(t, ok)

	require.Equal(t, models.DirectionOutbound, msg.Direction)
	require.NotNil(t, msg.WaID)
	require.Equal(t, "222", *msg.WaID)
	require.Equal(t, models.StatusSent, msg.Status)
	require.Nil(t, msg.Timestamps.Read)
}

func TestExtractMessageOutboundWithoutContact(t *testing.T) {
	raw := `{"metaData":{"entry":[{"changes":[{"value":{
		"metadata": {"display_phone_number": "111"},
		"messages": [{"id": "m1", "from": "111", "timestamp": "5"}]
	}}]}]}}`

	msg, ok := ExtractMessage(valueBlock(t, raw))
	require.True(t, ok)
	require.Equal(t, models.DirectionOutbound, msg.Direction)
	// Counterparty unresolved until a contact shows up.
	require.Nil(t, msg.WaID)
}

func TestExtractMessageAbsent(t *testing.T) {
	for _, raw := range []string{
		`{"metaData":{"entry":[{"changes":[{"value":{"statuses":[]}}]}]}}`,
		`{"metaData":{"entry":[{"changes":[{"value":{"messages":[]}}]}]}}`,
		`{"metaData":{"entry":[{"changes":[{"value":{"messages":["not-an-object"]}}]}]}}`,
	} {
		_, ok := ExtractMessage(valueBlock(t, raw))
		require.False(t, ok, "expected no message from: %s", raw)
	}
}

func TestExtractStatuses(t *testing.T) {
	updates := ExtractStatuses(valueBlock(t, statusPayload))
	require.Len(t, updates, 1)

	u := updates[0]
	require.Equal(t, "m1", u.ID)
	require.Equal(t, "wamid.1", u.MetaMsgID)
	require.Equal(t, models.StatusDelivered, u.Status)
	require.Equal(t, int64(1700000100), u.Timestamp)
	require.Equal(t, "conv-1", u.ConversationID)
	require.Equal(t, "gs-1", u.GsID)
	require.Equal(t, "333", u.RecipientID)
}

func TestExtractStatusesSkipsMalformedElements(t *testing.T) {
	raw := `{"metaData":{"entry":[{"changes":[{"value":{
		"statuses": [
			"not-an-object",
			{"id": "m1", "status": "read", "timestamp": "10"},
			42
		]
	}}]}]}}`

	updates := ExtractStatuses(valueBlock(t, raw))
	require.Len(t, updates, 1)
	require.Equal(t, "m1", updates[0].ID)
	require.Equal(t, models.StatusRead, updates[0].Status)
}

func TestStatusUpdateTargetID(t *testing.T) {
	require.Equal(t, "a", models.StatusUpdate{ID: "a", MetaMsgID: "b"}.TargetID())
	require.Equal(t, "b", models.StatusUpdate{MetaMsgID: "b"}.TargetID())
	require.Equal(t, "", models.StatusUpdate{}.TargetID())
}
