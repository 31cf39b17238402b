package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/overlord/internal/logging"
	"github.com/aretw0/overlord/pkg/domain"
)

const (
	// DefaultQueueSize is the number of lines buffered between readers and the writer.
	DefaultQueueSize = 256

	readBufferSize = 64 * 1024
)

// chunk is either a line of output or, when flushed is set, a marker the
// writer acknowledges once everything queued before it has been written.
type chunk struct {
	source  int
	data    []byte
	flushed chan struct{}
}

// Multiplexer serializes the output of all children into one writer.
// Each source is read by its own goroutine (Drain) and every line is handed
// to a single writer goroutine (Run), so lines are written whole and in the
// order each source produced them.
type Multiplexer struct {
	out    io.Writer
	queue  chan chunk
	done   chan struct{}
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	writeFailed bool
	closeOnce   sync.Once
}

// MuxOption configures the multiplexer.
type MuxOption func(*Multiplexer)

// WithMuxLogger sets the logger used to report write failures.
func WithMuxLogger(logger *slog.Logger) MuxOption {
	return func(m *Multiplexer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMuxHooks registers the OnOutput hook.
func WithMuxHooks(hooks domain.LifecycleHooks) MuxOption {
	return func(m *Multiplexer) {
		m.hooks = hooks
	}
}

// WithQueueSize overrides DefaultQueueSize.
func WithQueueSize(n int) MuxOption {
	return func(m *Multiplexer) {
		if n > 0 {
			m.queue = make(chan chunk, n)
		}
	}
}

// NewMultiplexer creates a multiplexer writing to out. Run must be started
// before any Drain call can complete.
func NewMultiplexer(out io.Writer, opts ...MuxOption) *Multiplexer {
	m := &Multiplexer{
		out:    out,
		queue:  make(chan chunk, DefaultQueueSize),
		done:   make(chan struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run writes queued lines until Close is called.
func (m *Multiplexer) Run() {
	defer close(m.done)
	ctx := context.Background()

	for c := range m.queue {
		if c.flushed != nil {
			close(c.flushed)
			continue
		}
		m.write(c.data)
		if m.hooks.OnOutput != nil {
			m.hooks.OnOutput(ctx, domain.OutputEvent{CommandID: c.source, Bytes: len(c.data)})
		}
	}
}

func (m *Multiplexer) write(p []byte) {
	if _, err := m.out.Write(p); err != nil && !m.writeFailed {
		// Keep draining: a broken combined output must not stall the children.
		m.writeFailed = true
		m.logger.Error("combined output write failed, discarding further output", "err", err)
	}
}

// Drain reads r until end-of-file and queues its lines, never splitting one. It returns only
// after every byte read from r has been written to the combined output.
// A read error ends the stream like end-of-file and is returned wrapped in
// domain.ErrOutputRead. Drain must not be called after Close.
func (m *Multiplexer) Drain(r io.Reader, source int) error {
	br := bufio.NewReaderSize(r, readBufferSize)

	var readErr error
	for {
		line, err := br.ReadBytes('\n')
		if err == nil {
			line = appendBuffered(br, line)
		}
		if len(line) > 0 {
			m.queue <- chunk{source: source, data: line}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = fmt.Errorf("%w: command #%d: %w", domain.ErrOutputRead, source, err)
			}
			break
		}
	}

	flushed := make(chan struct{})
	m.queue <- chunk{source: source, flushed: flushed}
	<-flushed
	return readErr
}

// appendBuffered extends line with the complete lines already buffered from
// the same read, so output written in one call stays together.
func appendBuffered(br *bufio.Reader, line []byte) []byte {
	n := br.Buffered()
	if n == 0 {
		return line
	}
	buf, _ := br.Peek(n)
	i := bytes.LastIndexByte(buf, '\n')
	if i < 0 {
		return line
	}
	line = append(line, buf[:i+1]...)
	_, _ = br.Discard(i + 1)
	return line
}

// Close stops the writer after the queue is empty and waits for it.
func (m *Multiplexer) Close() {
	m.closeOnce.Do(func() { close(m.queue) })
	<-m.done
}
