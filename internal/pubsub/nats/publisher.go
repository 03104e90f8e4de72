package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"formbase/internal/pubsub"
)

// publisher implements pubsub.Publisher on a JetStream context.
type publisher struct {
	js   JetStream
	opts pubsub.PublisherOptions
}

// NewPublisher creates a Publisher backed by NATS JetStream. When
// StreamName is set the stream is created or updated up front so the
// first publish cannot race stream provisioning.
func NewPublisher(js JetStream, opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}

	if opts.StreamName != "" {
		if err := ensureStream(js, opts); err != nil {
			return nil, err
		}
	}

	return &publisher{js: js, opts: opts}, nil
}

func ensureStream(js JetStream, opts pubsub.PublisherOptions) error {
	prefix := opts.StreamName
	if opts.SubjectPrefix != "" {
		prefix = opts.SubjectPrefix
	}

	storage := jetstream.MemoryStorage
	if opts.Storage == pubsub.FileStorage {
		storage = jetstream.FileStorage
	}

	_, err := js.CreateOrUpdateStream(context.Background(), jetstream.StreamConfig{
		Name:     opts.StreamName,
		Subjects: []string{prefix + ".>"},
		Storage:  storage,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", opts.StreamName, err)
	}
	return nil
}

// Publish sends a message to the specified subject.
func (p *publisher) Publish(ctx context.Context, subject string, data []byte) error {
	start := time.Now()

	if p.opts.SubjectPrefix != "" {
		subject = p.opts.SubjectPrefix + "." + subject
	}

	var popts []jetstream.PublishOpt
	if p.opts.RetryAttempts > 0 {
		popts = append(popts, jetstream.WithRetryAttempts(p.opts.RetryAttempts))
	}

	_, err := p.js.Publish(ctx, subject, data, popts...)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(subject, err, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close releases resources. The JetStream context has no independent
// lifecycle; the owning NATS connection is closed by the caller.
func (p *publisher) Close() error {
	return nil
}
