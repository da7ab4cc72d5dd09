// Package events defines the structured records the custody core emits
// alongside every successful balance mutation (§2.6, §6.2). Each event is
// a small struct implementing Event: one struct plus an EventType() and an
// attribute-map render per event, with shared formatting helpers.
package events

import "strconv"

// Record is the wire shape published on the indexer.EventSink boundary: a
// name and a flat attribute map.
type Record struct {
	Type       string
	Attributes map[string]string
}

// Event is implemented by every structured event the core can emit.
type Event interface {
	// EventType returns the stable event name downstream indexers key on.
	EventType() string
	// Record renders the event as a publishable Record.
	Record() Record
}

func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func formatTimestamp(ts int64) string {
	return strconv.FormatInt(ts, 10)
}
