// Package indexer defines the boundary between the custody core and its
// companion off-chain indexer: the HTTP/REST façade, CLI, database schema,
// reconciliation loop, dashboards, and websocket fan-out all live outside
// this repository and are referenced here only through the interfaces
// they consume. EventSink follows the small-interface,
// emitter/no-op-emitter shape used for the custody events package's
// richer Record type.
package indexer

import (
	"github.com/google/uuid"

	"github.com/quorumvault/custody/custody/events"
)

// EventSink receives every event a successful instruction emits (§2.6,
// §4.5: no event is emitted on failure). Implementations live outside this
// module's scope; NullSink and RecordingSink below exist only to let the
// core and its tests run without a real indexer attached.
type EventSink interface {
	Emit(rec events.Record)
}

// NullSink discards every event, matching core/events.NoopEmitter in the
// teacher. It is the default sink for deployments that have not yet wired a
// real indexer.
type NullSink struct{}

// Emit implements EventSink by discarding rec.
func (NullSink) Emit(events.Record) {}

// RecordingSink captures every emitted event in memory, for use by tests
// that assert on exactly what was published (§8 scenarios: "one Deposited
// event emitted").
type RecordingSink struct {
	Records []events.Record
}

// NewRecordingSink constructs an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Emit appends rec to the in-memory log.
func (s *RecordingSink) Emit(rec events.Record) {
	s.Records = append(s.Records, rec)
}

// IdempotencyKey mints a UUID an external indexer can use to deduplicate
// delivery of a given Record. The core never calls this itself — it
// documents the shape the indexer consumer is expected to generate keys
// in.
func IdempotencyKey() string {
	return uuid.NewString()
}
