package models

// Status is the delivery state of a message. The empty string means no status has
// been recorded yet. Valid values: "sent", "delivered", "read".
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// statusRank orders statuses for promotion; unknown values rank 0 and never win.
var statusRank = map[Status]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// PromoteStatus merges an incoming delivery state into the current one. A status only
// ever moves forward through sent -> delivered -> read; a lower-ranked (or unknown)
// incoming value leaves the current status untouched. Empty incoming keeps current,
// empty current takes incoming.
func PromoteStatus(current, incoming Status) Status {
	if incoming == "" {
		return current
	}
	if current == "" {
		return incoming
	}
	if statusRank[incoming] > statusRank[current] {
		return incoming
	}
	return current
}
