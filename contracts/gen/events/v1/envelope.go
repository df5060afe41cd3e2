package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope shared by every
// back-office publisher. Fields may be added but never renamed.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	ActorID          string          `json:"actor_id,omitempty"`
	Data             json.RawMessage `json:"data"`
}

// Topic returns the bus topic for the envelope. Topics are named after the
// event type so consumers can subscribe per fact.
func (e Envelope) Topic() string {
	return e.EventType
}
