package leadershipservice

import (
	"log/slog"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/adapters/audit"
	httpadapter "backoffice/contexts/leadership-governance/leadership-service/adapters/http"
	"backoffice/contexts/leadership-governance/leadership-service/adapters/memory"
	"backoffice/contexts/leadership-governance/leadership-service/adapters/metrics"
	"backoffice/contexts/leadership-governance/leadership-service/application/commands"
	"backoffice/contexts/leadership-governance/leadership-service/application/queries"
	"backoffice/contexts/leadership-governance/leadership-service/application/workers"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	Succession  workers.SuccessionConsumer
	Store       *memory.Store
	Audit       *audit.MemorySink
}

type Dependencies struct {
	Positions    ports.PositionCatalog
	Members      ports.MemberDirectory
	Operators    ports.OperatorRegistry
	Elections    ports.ElectionRepository
	Candidates   ports.CandidateRepository
	Votes        ports.VoteRepository
	Appointments ports.AppointmentRepository
	Finalizer    ports.FinalizationRepository
	Outbox       ports.OutboxRepository
	Publisher    ports.EventPublisher
	Subscriber   ports.EventSubscriber
	Audit        ports.AuditSink
	Metrics      ports.Metrics
	Clock        ports.Clock
	IDGen        ports.IDGenerator

	OutboxBatchSize int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	if deps.Audit == nil {
		deps.Audit = audit.LogSink{Logger: deps.Logger}
	}

	tally := queries.TallyUseCase{
		Elections:  deps.Elections,
		Candidates: deps.Candidates,
		Votes:      deps.Votes,
	}
	return Module{
		Handler: httpadapter.Handler{
			Elections: commands.ElectionUseCase{
				Elections: deps.Elections,
				Positions: deps.Positions,
				Audit:     deps.Audit,
				Metrics:   deps.Metrics,
				Clock:     deps.Clock,
				IDGen:     deps.IDGen,
				Logger:    deps.Logger,
			},
			Candidates: commands.CandidateUseCase{
				Elections:  deps.Elections,
				Candidates: deps.Candidates,
				Members:    deps.Members,
				Audit:      deps.Audit,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Votes: commands.VoteUseCase{
				Elections:  deps.Elections,
				Candidates: deps.Candidates,
				Votes:      deps.Votes,
				Members:    deps.Members,
				Audit:      deps.Audit,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Finalization: commands.FinalizationUseCase{
				Elections:  deps.Elections,
				Candidates: deps.Candidates,
				Finalizer:  deps.Finalizer,
				Tally:      tally,
				Audit:      deps.Audit,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Appointments: commands.AppointmentUseCase{
				Appointments: deps.Appointments,
				Positions:    deps.Positions,
				Members:      deps.Members,
				Operators:    deps.Operators,
				Audit:        deps.Audit,
				Metrics:      deps.Metrics,
				Clock:        deps.Clock,
				IDGen:        deps.IDGen,
				Logger:       deps.Logger,
			},
			ElectionQueries: queries.ElectionQueryUseCase{
				Elections:  deps.Elections,
				Candidates: deps.Candidates,
			},
			Tally: tally,
			AppointmentQueries: queries.AppointmentQueryUseCase{
				Appointments: deps.Appointments,
				Positions:    deps.Positions,
			},
			Logger: deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		Succession: workers.SuccessionConsumer{
			Subscriber:   deps.Subscriber,
			Appointments: deps.Appointments,
			Metrics:      deps.Metrics,
			Clock:        deps.Clock,
			Logger:       deps.Logger,
		},
	}
}

// EventBus is satisfied by the in-process messaging bus.
type EventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

// NewInMemoryModule wires every port to one process-local store. Audit
// entries are kept in memory and also logged. bus may be nil when no relay
// or consumer is run.
func NewInMemoryModule(bus EventBus, logger *slog.Logger) Module {
	store := memory.NewStore()
	sink := audit.NewMemorySink()
	module := NewModule(Dependencies{
		Positions:       store,
		Members:         store,
		Operators:       store,
		Elections:       store,
		Candidates:      store,
		Votes:           store,
		Appointments:    store,
		Finalizer:       store,
		Outbox:          store,
		Publisher:       bus,
		Subscriber:      bus,
		Audit:           audit.Fanout{sink, audit.LogSink{Logger: logger}},
		Clock:           store,
		IDGen:           store,
		OutboxBatchSize: 100,
		Logger:          logger,
	})
	module.Store = store
	module.Audit = sink
	return module
}

// DefaultOutboxPollInterval is used by workers that do not configure one.
const DefaultOutboxPollInterval = 2 * time.Second
