package webhook

import (
	"github.com/whatsview/whatsview-backend/internal/models"
)

// ExtractMessage converts a message-bearing value block into a canonical Message.
// Only messages[0] is consulted: the upstream gateway delivers one message per event,
// and multi-message blocks are a known, intentionally unhandled case. Returns
// (nil, false) when the block has no usable first message; status extraction for the
// same block is unaffected.
func ExtractMessage(v ValueBlock) (*models.Message, bool) {
	msg, ok := firstOfList(v, "messages")
	if !ok {
		return nil, false
	}

	metadata := getMap(v, "metadata")
	contact, _ := firstOfList(v, "contacts")

	businessPhone := getString(metadata, "display_phone_number")
	from := getString(msg, "from")
	text := getString(getMap(msg, "text"), "body")

	// Direction rule: a message sent from the business line's own number is outbound
	// and the counterparty is the listed contact; anything else is inbound from the
	// sender itself.
	var direction models.Direction
	var waID string
	if businessPhone != "" && from == businessPhone {
		direction = models.DirectionOutbound
		waID = getString(contact, "wa_id")
	} else {
		direction = models.DirectionInbound
		waID = from
	}

	ts := models.Timestamps{Whatsapp: epochSeconds(msg["timestamp"])}

	// An inbound message is read by definition of having been received; outbound
	// starts at "sent" and advances via status events.
	status := models.StatusSent
	if direction == models.DirectionInbound {
		status = models.StatusRead
		ts.Read = &ts.Whatsapp
	}

	return &models.Message{
		ID:            getString(msg, "id"),
		WaID:          optional(waID),
		Name:          optional(getString(getMap(contact, "profile"), "name")),
		Direction:     direction,
		Text:          optional(text),
		Type:          optional(getString(msg, "type")),
		Status:        status,
		Timestamps:    ts,
		BusinessPhone: optional(businessPhone),
		PhoneNumberID: optional(getString(metadata, "phone_number_id")),
	}, true
}

// ExtractStatuses converts a status-bearing value block into canonical updates.
// Elements that are not objects are skipped individually; the result may be empty but
// extraction itself never fails.
func ExtractStatuses(v ValueBlock) []models.StatusUpdate {
	list, _ := v["statuses"].([]interface{})

	var updates []models.StatusUpdate
	for _, raw := range list {
		st, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		updates = append(updates, models.StatusUpdate{
			ID:             getString(st, "id"),
			MetaMsgID:      getString(st, "meta_msg_id"),
			Status:         models.Status(getString(st, "status")),
			Timestamp:      epochSeconds(st["timestamp"]),
			ConversationID: getString(getMap(st, "conversation"), "id"),
			GsID:           getString(st, "gs_id"),
			RecipientID:    getString(st, "recipient_id"),
		})
	}
	return updates
}

// optional maps the zero string to a null field.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
