package types

import "encoding/json"

// Event is a (name, data) pair appended to a transaction's event list. It
// survives only if the transaction that produced it ultimately succeeds.
type Event struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// NewEvent JSON-encodes payload and wraps it with name into an Event. Panics
// are never raised here: a marshal failure on an internal, well-typed event
// payload indicates a programming error and is folded into an empty JSON
// object ("{}") as data rather than aborting the emitting call.
func NewEvent(name string, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{Name: name, Data: "{}"}
	}
	return Event{Name: name, Data: string(raw)}
}
