// Package memory is an in-process Publisher used in tests and
// single-node deployments without a broker.
package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Message is a published message retained by the publisher.
type Message struct {
	Subject string
	Data    []byte
}

// Publisher retains every published message and fans them out to
// subscriber channels.
type Publisher struct {
	mu       sync.Mutex
	closed   bool
	messages []Message
	subs     []chan Message
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	msg := Message{Subject: subject, Data: append([]byte(nil), data...)}
	p.messages = append(p.messages, msg)

	for _, ch := range p.subs {
		select {
		case ch <- msg:
		default:
			// Slow subscribers drop; this publisher is best-effort.
		}
	}
	return nil
}

// Subscribe returns a channel receiving future messages.
func (p *Publisher) Subscribe() <-chan Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Message, 64)
	p.subs = append(p.subs, ch)
	return ch
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
	return nil
}
