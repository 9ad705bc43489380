package models

// Direction says whether a message was sent by the business line or received from
// the counterparty.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Timestamps groups the event times recorded for a message. Whatsapp is the
// authoritative event time from the source payload; the per-status fields are filled
// in as status updates arrive and stay null until then.
type Timestamps struct {
	Whatsapp  int64  `bson:"whatsapp" json:"whatsapp"`
	Sent      *int64 `bson:"sent" json:"sent"`
	Delivered *int64 `bson:"delivered" json:"delivered"`
	Read      *int64 `bson:"read" json:"read"`
}

// Message is the durable unit of conversation state, one document per message in the
// processed_messages collection. The document id doubles as the message id so
// re-ingesting the same source event can never create a second record.
type Message struct {
	ID             string     `bson:"_id" json:"id"`
	WaID           *string    `bson:"waId" json:"waId"`
	Name           *string    `bson:"name" json:"name"`
	Direction      Direction  `bson:"direction" json:"direction"`
	Text           *string    `bson:"text" json:"text"`
	Type           *string    `bson:"type" json:"type"`
	Status         Status     `bson:"status,omitempty" json:"status,omitempty"`
	Timestamps     Timestamps `bson:"timestamps" json:"timestamps"`
	BusinessPhone  *string    `bson:"businessPhone" json:"businessPhone"`
	PhoneNumberID  *string    `bson:"phoneNumberId" json:"phoneNumberId"`
	ConversationID *string    `bson:"conversationId" json:"conversationId"`
	GsID           *string    `bson:"gsId" json:"gsId"`
	MetaMsgID      *string    `bson:"metaMsgId" json:"metaMsgId"`
}

// StatusUpdate is a single delivery-state event extracted from a webhook payload.
// It is consumed by one reconciliation step and never persisted on its own.
type StatusUpdate struct {
	ID             string `json:"id"`
	MetaMsgID      string `json:"meta_msg_id"`
	Status         Status `json:"status"`
	Timestamp      int64  `json:"timestamp"`
	ConversationID string `json:"conversationId"`
	GsID           string `json:"gsId"`
	RecipientID    string `json:"recipient_id"`
}

// TargetID resolves which message this update applies to: the event's own id wins,
// falling back to the secondary meta_msg_id.
func (u StatusUpdate) TargetID() string {
	if u.ID != "" {
		return u.ID
	}
	return u.MetaMsgID
}

// Conversation is the per-counterparty summary returned by the conversations API:
// the latest message in each waId group plus any display name seen for it.
type Conversation struct {
	WaID                 *string   `bson:"waId" json:"waId"`
	Name                 *string   `bson:"name" json:"name"`
	LastMessageText      *string   `bson:"lastMessageText" json:"lastMessageText"`
	LastMessageAt        *int64    `bson:"lastMessageAt" json:"lastMessageAt"`
	LastMessageDirection Direction `bson:"lastMessageDirection" json:"lastMessageDirection"`
	LastMessageStatus    Status    `bson:"lastMessageStatus,omitempty" json:"lastMessageStatus,omitempty"`
}
