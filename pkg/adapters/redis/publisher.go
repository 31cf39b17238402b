package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/overlord/internal/logging"
	"github.com/aretw0/overlord/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the Pub/Sub channel events are published on.
const DefaultChannel = "overlord:events"

// Message is the JSON envelope published for every lifecycle event.
type Message struct {
	RunID string `json:"run_id"`
	Event any    `json:"event"`
}

// Publisher broadcasts supervisor lifecycle events over Redis Pub/Sub.
type Publisher struct {
	client  *backend.Client
	channel string
	runID   string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithChannel sets the Pub/Sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(p *Publisher) {
		p.runID = id
	}
}

// WithTimeout bounds each PUBLISH so a slow Redis cannot stall supervision.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.timeout = d
	}
}

// WithLogger sets the logger used to report publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a publisher with its own client.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewPublisher(rdb, opts...)
}

// NewPublisher creates a publisher from an existing client.
func NewPublisher(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		runID:   uuid.NewString(),
		timeout: 500 * time.Millisecond,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunID identifies this supervisor instance in published messages.
func (p *Publisher) RunID() string {
	return p.runID
}

// Ping checks that Redis is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	return nil
}

// Publish sends one event wrapped in a Message.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	data, err := json.Marshal(Message{RunID: p.runID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Hooks returns lifecycle hooks publishing every process and shutdown event.
// Failures are logged and never interrupt supervision.
func (p *Publisher) Hooks() domain.LifecycleHooks {
	onProcess := func(ctx context.Context, e *domain.ProcessEvent) {
		p.publish(ctx, e)
	}
	return domain.LifecycleHooks{
		OnStart:      onProcess,
		OnExit:       onProcess,
		OnSpawnError: onProcess,
		OnRemove:     onProcess,
		OnShutdown: func(ctx context.Context, e *domain.ShutdownEvent) {
			p.publish(ctx, e)
		},
	}
}

func (p *Publisher) publish(ctx context.Context, event any) {
	if err := p.Publish(ctx, event); err != nil {
		p.logger.Warn("event not published", "channel", p.channel, "err", err)
	}
}

// Close releases the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
