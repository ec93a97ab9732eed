package execlog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homestack/toolhub/internal/metrics"
)

// defaultQueueSize bounds the write queue; a full queue drops entries
// rather than blocking the executor.
const defaultQueueSize = 256

// writeTimeout bounds a single sink write so a wedged sink cannot stall
// the drain on Close.
const writeTimeout = 5 * time.Second

// Writer is a channel-fed background worker that owns the sink. The
// executor only enqueues; it never awaits a write, and a write failure
// can never turn a successful tool call into a failed one.
type Writer struct {
	sink    Sink
	queue   chan Entry
	logger  zerolog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
	once    sync.Once
}

// WriterConfig holds writer configuration
type WriterConfig struct {
	Sink   Sink
	Logger zerolog.Logger
	// QueueSize defaults to defaultQueueSize when zero.
	QueueSize int
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// NewWriter starts the background worker.
func NewWriter(cfg WriterConfig) *Writer {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	w := &Writer{
		sink:    cfg.Sink,
		queue:   make(chan Entry, size),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}

	w.wg.Add(1)
	go w.run()

	return w
}

// Enqueue hands an entry to the worker. It never blocks: when the queue
// is full the entry is dropped with a warning.
func (w *Writer) Enqueue(entry Entry) {
	if entry.ID == "" {
		entry.ID = NewEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	select {
	case w.queue <- entry:
		if w.metrics != nil {
			w.metrics.ExecLogQueueDepth.Set(float64(len(w.queue)))
		}
	default:
		if w.metrics != nil {
			w.metrics.ExecLogDroppedTotal.Inc()
		}
		w.logger.Warn().
			Str("tool", entry.ToolName).
			Msg("Execution log queue full, dropping entry")
	}
}

// Close stops accepting entries and drains the queue.
func (w *Writer) Close() error {
	w.once.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
	return w.sink.Close()
}

// run drains the queue until it is closed.
func (w *Writer) run() {
	defer w.wg.Done()

	for entry := range w.queue {
		if w.metrics != nil {
			w.metrics.ExecLogQueueDepth.Set(float64(len(w.queue)))
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := w.sink.Write(ctx, entry)
		cancel()

		if err != nil {
			// Swallowed: logging failures are operator-visible only.
			w.logger.Error().
				Err(err).
				Str("tool", entry.ToolName).
				Msg("Execution log write failed")
			continue
		}

		if w.metrics != nil {
			w.metrics.ExecLogWritesTotal.Inc()
		}
	}
}
