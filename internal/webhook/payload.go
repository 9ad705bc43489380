package webhook

import "strconv"

// Payload is one webhook event document, already parsed into generic JSON shapes
// (map[string]interface{} / []interface{}).
type Payload map[string]interface{}

// ValueBlock is the nested substructure of a payload that carries the actual
// "messages" and/or "statuses" arrays.
type ValueBlock map[string]interface{}

// FindValueBlock walks the fixed webhook nesting metaData.entry[0].changes[0].value.
// Any missing or wrongly-typed level yields (nil, false); a payload that doesn't match
// the shape is skipped by callers, never treated as an error.
func FindValueBlock(payload Payload) (ValueBlock, bool) {
	entry, ok := firstOfList(asMap(payload["metaData"]), "entry")
	if !ok {
		return nil, false
	}
	change, ok := firstOfList(entry, "changes")
	if !ok {
		return nil, false
	}
	value, ok := change["value"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return ValueBlock(value), true
}

// IsMessagePayload reports whether the block carries inbound/outbound messages.
func (v ValueBlock) IsMessagePayload() bool {
	list, ok := v["messages"].([]interface{})
	return ok && len(list) > 0
}

// IsStatusPayload reports whether the block carries delivery-status events. An empty
// statuses array still counts; extraction just yields nothing.
func (v ValueBlock) IsStatusPayload() bool {
	_, ok := v["statuses"].([]interface{})
	return ok
}

// firstOfList returns m[key][0] when m[key] is a non-empty list whose first element
// is an object. A nil m yields (nil, false).
func firstOfList(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	list, ok := m[key].([]interface{})
	if !ok || len(list) == 0 {
		return nil, false
	}
	elem, ok := list[0].(map[string]interface{})
	return elem, ok
}

func asMap(v interface{}) map[string]interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return m
}

// getString reads m[key] as a string; absent or non-string yields "".
func getString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// getMap reads m[key] as an object; absent or non-object yields nil (safe to index).
func getMap(m map[string]interface{}, key string) map[string]interface{} {
	return asMap(m[key])
}

// epochSeconds coerces a JSON timestamp into epoch seconds. Webhook payloads carry
// timestamps as decimal strings; numbers are accepted too. Anything else is 0.
func epochSeconds(v interface{}) int64 {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}
