package commands

import (
	"encoding/json"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

func newLeadershipEnvelope(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	actorID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "leadership-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		ActorID:          actorID,
		Data:             payload,
	}, nil
}

func timePtrValue(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}
