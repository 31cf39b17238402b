package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/overlord/pkg/adapters/redis"
	"github.com/aretw0/overlord/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func receive(t *testing.T, sub *backend.PubSub) redis.Message {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		var out redis.Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &out))
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return redis.Message{}
	}
}

func TestPublisher_Hooks(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "test:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := redis.NewPublisher(client, redis.WithChannel("test:events"), redis.WithRunID("run-1"))
	require.NoError(t, pub.Ping(ctx))
	hooks := pub.Hooks()

	// 1. Process event
	start := domain.NewProcessEvent(domain.EventStart, domain.CommandSpec{ID: 3, Line: "echo hi"})
	start.Pid = 1234
	hooks.OnStart(ctx, start)

	msg := receive(t, sub)
	assert.Equal(t, "run-1", msg.RunID)
	event, ok := msg.Event.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(domain.EventStart), event["type"])
	assert.Equal(t, 3.0, event["command_id"])
	assert.Equal(t, 1234.0, event["pid"])

	// 2. Shutdown event
	hooks.OnShutdown(ctx, &domain.ShutdownEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventShutdown},
		Request:   "graceful",
		From:      "running",
		To:        "termination_requested",
	})

	msg = receive(t, sub)
	event = msg.Event.(map[string]any)
	assert.Equal(t, string(domain.EventShutdown), event["type"])
	assert.Equal(t, "termination_requested", event["to"])
}

func TestPublisher_DefaultsAndFailures(t *testing.T) {
	mr, client := setup(t)
	pub := redis.NewPublisher(client)

	assert.NotEmpty(t, pub.RunID(), "a run id is generated")

	mr.Close()
	err := pub.Publish(context.Background(), map[string]string{"k": "v"})
	assert.Error(t, err)

	// Hooks swallow the failure.
	assert.NotPanics(t, func() {
		pub.Hooks().OnRemove(context.Background(), domain.NewProcessEvent(domain.EventRemove, domain.CommandSpec{ID: 1}))
	})
}
