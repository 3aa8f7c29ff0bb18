package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"veilpay/internal/domain"
)

// Sink receives committed events. The funds-movement layer and external
// indexers plug in here; a sink failure never unwinds the transaction that
// produced the event.
type Sink interface {
	Publish(event domain.Event) error
}

// EventLog is the append-only record of committed state transitions. Appends
// are stored synchronously; delivery to sinks happens on a small worker pool
// off the commit path.
type EventLog struct {
	mu           sync.RWMutex
	events       []domain.Event
	sinks        []Sink
	queue        chan domain.Event
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

func NewEventLog(sinks []Sink, workers int, logger *slog.Logger) *EventLog {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}

	log := &EventLog{
		sinks:        sinks,
		queue:        make(chan domain.Event, 1000),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	log.startWorkers()

	return log
}

// Append records the event and queues it for sink delivery. The stored log is
// the source of truth; queue pressure is reported but never blocks a commit.
func (l *EventLog) Append(event domain.Event) domain.Event {
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	select {
	case l.queue <- event:
	default:
		l.logger.Warn("Event queue full, sink delivery skipped",
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)))
	}

	return event
}

// All returns the committed events in append order.
func (l *EventLog) All() []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Event, len(l.events))
	copy(out, l.events)

	return out
}

// ByType filters the log by event type, preserving append order.
func (l *EventLog) ByType(t domain.EventType) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}

	return out
}

func (l *EventLog) startWorkers() {
	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go l.worker(i)
	}
}

func (l *EventLog) worker(id int) {
	defer l.wg.Done()

	for {
		select {
		case event := <-l.queue:
			l.dispatch(event, id)
		case <-l.shutdownChan:
			return
		}
	}
}

func (l *EventLog) dispatch(event domain.Event, workerID int) {
	for _, sink := range l.sinks {
		if err := sink.Publish(event); err != nil {
			l.logger.Error("Sink delivery failed",
				slog.String("event_id", event.ID),
				slog.String("type", string(event.Type)),
				slog.Int("worker_id", workerID),
				slog.String("error", err.Error()))
		}
	}
}

func (l *EventLog) Shutdown(ctx context.Context) error {
	close(l.shutdownChan)

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("Event log shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockSink collects published events for tests.
type MockSink struct {
	mu     sync.Mutex
	Events []domain.Event
}

func (m *MockSink) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockSink) Published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.Events))
	copy(out, m.Events)
	return out
}
