// Package nats implements pubsub.Publisher on top of NATS JetStream.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStream is the subset of jetstream.JetStream the publisher uses.
// Narrowed for mocking in tests.
type JetStream interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// NewJetStream creates a JetStream context from a NATS connection.
func NewJetStream(nc *nats.Conn) (JetStream, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	return jetstream.New(nc)
}

// Connect dials the NATS server and returns a JetStream context plus
// the underlying connection for lifecycle management.
func Connect(url string) (*nats.Conn, JetStream, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := NewJetStream(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream: %w", err)
	}
	return nc, js, nil
}
