// Package pubsub provides the publishing abstraction used to fan
// response events out to notification plugins.
package pubsub

import (
	"context"
	"time"
)

// Publisher publishes messages to a stream.
type Publisher interface {
	// Publish sends a message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases resources.
	Close() error
}

// StorageType selects how the broker persists stream messages.
type StorageType int

const (
	// MemoryStorage keeps messages in memory (lost on restart).
	MemoryStorage StorageType = iota
	// FileStorage persists messages to disk.
	FileStorage
)

// PublisherOptions configures a Publisher.
type PublisherOptions struct {
	// StreamName is the stream to publish into. The publisher ensures
	// the stream exists before first use.
	StreamName string

	// SubjectPrefix is prepended to every published subject.
	SubjectPrefix string

	// Storage selects the stream storage backend.
	Storage StorageType

	// RetryAttempts is the number of publish retries (0 = no retry).
	RetryAttempts int

	// OnPublish, if set, is invoked after each publish attempt.
	OnPublish func(subject string, err error, elapsed time.Duration)
}
