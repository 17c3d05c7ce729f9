package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// testClient connects to the Redis instance named by LOUNGEBOT_TEST_REDIS_ADDR,
// skipping the test when the variable is unset.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("LOUNGEBOT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LOUNGEBOT_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := New(ctx, ClientConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStreamReadAtTipReturnsImmediately(t *testing.T) {
	client := testClient(t)
	bus := NewSignalBus(client)
	stream := fmt.Sprintf("stream:test:%d", time.Now().UnixNano())

	ctx := context.Background()
	if err := bus.StreamAppend(ctx, stream, []byte(`{"match_id":1}`)); err != nil {
		t.Fatalf("append: %v", err)
	}
	defer client.Underlying().Del(ctx, stream)

	msgs, err := bus.StreamRead(ctx, stream, "0", 10)
	if err != nil {
		t.Fatalf("read from start: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	// Reading past the newest entry must come back empty, not block waiting
	// for the next XADD.
	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msgs, err = bus.StreamRead(readCtx, stream, msgs[0].ID, 10)
	if err != nil {
		t.Fatalf("read at tip: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d messages at the stream tip, want none", len(msgs))
	}
	if readCtx.Err() != nil {
		t.Fatal("read at tip blocked until the context deadline")
	}
}
