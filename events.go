package quorum

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tendermint/tendermint/libs/common"
)

// Event is a structured, append only record of a successful state change.
// Events are meant for external indexing and are the only externally
// observed log of the system.
type Event struct {
	// Type is the kind tag of the event, for example "proposal_created".
	Type string
	// Attributes hold the event fields.
	Attributes []common.KVPair
}

// NewEvent returns an event of a given type. Attributes are provided as
// key value pairs, keys must be strings. Values are rendered with fmt unless
// they are already a string or a byte slice.
func NewEvent(typ string, keyvals ...interface{}) Event {
	if len(keyvals)%2 != 0 {
		panic("odd number of event attributes")
	}
	ev := Event{Type: typ}
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			panic(fmt.Sprintf("event attribute key must be a string, got %T", keyvals[i]))
		}
		ev.Attributes = append(ev.Attributes, common.KVPair{
			Key:   []byte(key),
			Value: attributeValue(keyvals[i+1]),
		})
	}
	return ev
}

func attributeValue(v interface{}) []byte {
	switch v := v.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprint(v))
	}
}

// Attr returns the value of the first attribute with given key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if string(a.Key) == key {
			return string(a.Value), true
		}
	}
	return "", false
}

// MarshalJSON renders attributes as a flat string map.
func (e Event) MarshalJSON() ([]byte, error) {
	attrs := make(map[string]string, len(e.Attributes))
	for _, a := range e.Attributes {
		attrs[string(a.Key)] = string(a.Value)
	}
	return json.Marshal(struct {
		Type       string            `json:"type"`
		Attributes map[string]string `json:"attributes"`
	}{
		Type:       e.Type,
		Attributes: attrs,
	})
}

// UnmarshalJSON reads the flat map format. Attributes are ordered by key.
func (e *Event) UnmarshalJSON(raw []byte) error {
	var ev struct {
		Type       string            `json:"type"`
		Attributes map[string]string `json:"attributes"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	keys := make([]string, 0, len(ev.Attributes))
	for k := range ev.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	*e = Event{Type: ev.Type}
	for _, k := range keys {
		e.Attributes = append(e.Attributes, common.KVPair{Key: []byte(k), Value: []byte(ev.Attributes[k])})
	}
	return nil
}
