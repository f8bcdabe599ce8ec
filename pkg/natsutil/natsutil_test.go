package natsutil

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestMsgCarrier(t *testing.T) {
	msg := &nats.Msg{Subject: "test"}
	c := (*msgCarrier)(msg)

	if got := c.Get("traceparent"); got != "" {
		t.Fatalf("empty carrier returned %q", got)
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("got %q", got)
	}
	// Set must have initialized the header map on the message itself.
	if msg.Header.Get("traceparent") != "00-abc-def-01" {
		t.Fatal("header not written through to the message")
	}

	c.Set("other", "v")
	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("keys = %v", keys)
	}
}

func TestPublish_RejectsUnmarshalableValue(t *testing.T) {
	// Marshal failure must surface before any connection use.
	err := Publish(context.Background(), nil, "test", func() {})
	if err == nil {
		t.Fatal("expected marshal error")
	}
}
