package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

type failingSink struct{ err error }

func (f failingSink) Record(context.Context, ports.AuditEntry) error { return f.err }

func auditEntry() ports.AuditEntry {
	return ports.AuditEntry{
		Action:     "appointment.terminated",
		ActorID:    "admin-1",
		EntityType: "appointment",
		EntityID:   "appt-1",
		Details:    map[string]any{"reason": "term ended"},
		OccurredAt: time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLogSinkWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	if err := sink.Record(context.Background(), auditEntry()); err != nil {
		t.Fatalf("record: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if record["event"] != "leadership_audit" || record["action"] != "appointment.terminated" || record["entity_id"] != "appt-1" {
		t.Fatalf("unexpected audit record %v", record)
	}
	details, ok := record["details"].(map[string]any)
	if !ok || details["reason"] != "term ended" {
		t.Fatalf("expected details to be logged, got %v", record["details"])
	}
}

func TestFanoutRecordsEverywhereAndReportsFirstError(t *testing.T) {
	first := NewMemorySink()
	second := NewMemorySink()
	boom := errors.New("sink unavailable")
	fanout := Fanout{first, failingSink{err: boom}, nil, second, failingSink{err: errors.New("later")}}

	err := fanout.Record(context.Background(), auditEntry())
	if !errors.Is(err, boom) {
		t.Fatalf("expected first sink error, got %v", err)
	}
	if len(first.Entries()) != 1 || len(second.Entries()) != 1 {
		t.Fatalf("every healthy sink should record: first=%d second=%d", len(first.Entries()), len(second.Entries()))
	}
}
