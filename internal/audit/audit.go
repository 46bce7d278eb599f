package audit

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Event is a structured audit record. Details may carry internal identifiers
// (emails, session ids); audit output never reaches end users.
type Event struct {
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Status     string
	Details    map[string]string
}

// Sink accepts audit events. Emit is fire-and-forget: it must never block the
// caller and must never surface an error into the primary operation.
type Sink interface {
	Emit(event Event)
}

// Writer is the synchronous backend behind AsyncSink.
type Writer interface {
	Write(event Event) error
}

// ZapWriter records audit events as structured log lines.
type ZapWriter struct {
	log *zap.Logger
}

func NewZapWriter(log *zap.Logger) *ZapWriter {
	return &ZapWriter{log: log.Named("audit")}
}

func (w *ZapWriter) Write(event Event) error {
	fields := []zap.Field{
		zap.String("actor", event.Actor),
		zap.String("action", event.Action),
		zap.String("resource", event.Resource),
		zap.String("status", event.Status),
	}
	if event.ResourceID != "" {
		fields = append(fields, zap.String("resource_id", event.ResourceID))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String(k, v))
	}
	w.log.Info("audit event", fields...)

	return nil
}

// AsyncSinkConfig configures the bounded emission queue.
type AsyncSinkConfig struct {
	// QueueSize is the bounded queue size (default: 256).
	QueueSize int
	// MaxRetries is the number of write retries per event (default: 3).
	MaxRetries int
	// RetryBackoff is the pause between retries (default: 50ms).
	RetryBackoff time.Duration
}

// AsyncSink drains events to a Writer on a background goroutine. A full queue
// drops the event rather than blocking the caller.
type AsyncSink struct {
	writer Writer
	queue  chan Event
	cfg    AsyncSinkConfig
	log    *zap.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
}

func NewAsyncSink(writer Writer, cfg AsyncSinkConfig, log *zap.Logger) *AsyncSink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 50 * time.Millisecond
	}

	s := &AsyncSink{
		writer: writer,
		queue:  make(chan Event, cfg.QueueSize),
		cfg:    cfg,
		log:    log,
	}

	s.wg.Add(1)
	go s.drain()

	return s
}

// Emit enqueues the event without blocking. Events offered after Close, or
// while the queue is full, are counted and dropped.
func (s *AsyncSink) Emit(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.queue <- event:
	default:
		s.dropped.Add(1)
		s.log.Warn("audit queue full, event dropped",
			zap.String("action", event.Action),
			zap.Int64("dropped_total", s.dropped.Load()))
	}
}

// Dropped reports how many events were discarded.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops the drain goroutine after flushing queued events.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	s.wg.Wait()
}

func (s *AsyncSink) drain() {
	defer s.wg.Done()

	for event := range s.queue {
		var err error
		for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
			if err = s.writer.Write(event); err == nil {
				break
			}
			time.Sleep(s.cfg.RetryBackoff)
		}
		if err != nil {
			s.log.Error("audit event lost after retries",
				zap.String("action", event.Action),
				zap.Error(err))
		}
	}
}
