package audit

import (
	"context"
	"log/slog"
	"sync"

	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

// LogSink writes audit entries as structured log records.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Record(ctx context.Context, entry ports.AuditEntry) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fields := []any{
		"event", "leadership_audit",
		"module", "leadership-governance/leadership-service",
		"layer", "adapter",
		"action", entry.Action,
		"actor_id", entry.ActorID,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
		"occurred_at", entry.OccurredAt,
	}
	if len(entry.Details) > 0 {
		fields = append(fields, "details", entry.Details)
	}
	logger.InfoContext(ctx, "leadership audit entry", fields...)
	return nil
}

// MemorySink keeps audit entries in process for inspection.
type MemorySink struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(_ context.Context, entry ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemorySink) Entries() []ports.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.AuditEntry(nil), s.entries...)
}

// Fanout records into every sink and returns the first failure.
type Fanout []ports.AuditSink

func (f Fanout) Record(ctx context.Context, entry ports.AuditEntry) error {
	var first error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ ports.AuditSink = LogSink{}
var _ ports.AuditSink = (*MemorySink)(nil)
var _ ports.AuditSink = Fanout{}
