package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"formbase/internal/pubsub"
)

type mockJetStream struct {
	mock.Mock
}

func (m *mockJetStream) Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, payload)
	if ack, ok := args.Get(0).(*jetstream.PubAck); ok {
		return ack, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	if s, ok := args.Get(0).(jetstream.Stream); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestNewPublisher_NilJetStream(t *testing.T) {
	_, err := NewPublisher(nil, pubsub.PublisherOptions{})
	assert.Error(t, err)
}

func TestNewPublisher_EnsuresStream(t *testing.T) {
	js := new(mockJetStream)
	js.On("CreateOrUpdateStream", mock.Anything, mock.MatchedBy(func(cfg jetstream.StreamConfig) bool {
		return cfg.Name == "RESPONSES" && len(cfg.Subjects) == 1 && cfg.Subjects[0] == "responses.>"
	})).Return(nil, nil)

	pub, err := NewPublisher(js, pubsub.PublisherOptions{
		StreamName:    "RESPONSES",
		SubjectPrefix: "responses",
	})

	require.NoError(t, err)
	assert.NotNil(t, pub)
	js.AssertExpectations(t)
}

func TestNewPublisher_StreamError(t *testing.T) {
	js := new(mockJetStream)
	js.On("CreateOrUpdateStream", mock.Anything, mock.Anything).Return(nil, errors.New("stream error"))

	_, err := NewPublisher(js, pubsub.PublisherOptions{StreamName: "RESPONSES"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stream error")
}

func TestNewPublisher_NoStreamName(t *testing.T) {
	js := new(mockJetStream)

	pub, err := NewPublisher(js, pubsub.PublisherOptions{})

	require.NoError(t, err)
	assert.NotNil(t, pub)
	js.AssertNotCalled(t, "CreateOrUpdateStream")
}

func TestPublisher_Publish(t *testing.T) {
	js := new(mockJetStream)
	js.On("CreateOrUpdateStream", mock.Anything, mock.Anything).Return(nil, nil)
	js.On("Publish", mock.Anything, "responses.form-1.created", []byte(`{"id":"r1"}`)).Return(&jetstream.PubAck{}, nil)

	pub, err := NewPublisher(js, pubsub.PublisherOptions{
		StreamName:    "RESPONSES",
		SubjectPrefix: "responses",
	})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "form-1.created", []byte(`{"id":"r1"}`))
	assert.NoError(t, err)
	js.AssertExpectations(t)
}

func TestPublisher_Publish_NoPrefix(t *testing.T) {
	js := new(mockJetStream)
	js.On("Publish", mock.Anything, "form-1.created", mock.Anything).Return(&jetstream.PubAck{}, nil)

	pub, err := NewPublisher(js, pubsub.PublisherOptions{})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "form-1.created", []byte("x"))
	assert.NoError(t, err)
	js.AssertExpectations(t)
}

func TestPublisher_PublishError(t *testing.T) {
	js := new(mockJetStream)
	js.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("publish failed"))

	pub, err := NewPublisher(js, pubsub.PublisherOptions{})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "form-1.created", []byte("x"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "publish failed")
}

func TestPublisher_OnPublishCallback(t *testing.T) {
	js := new(mockJetStream)
	js.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(&jetstream.PubAck{}, nil)

	var gotSubject string
	var gotErr error
	var gotLatency time.Duration

	pub, err := NewPublisher(js, pubsub.PublisherOptions{
		SubjectPrefix: "responses",
		OnPublish: func(subject string, err error, latency time.Duration) {
			gotSubject = subject
			gotErr = err
			gotLatency = latency
		},
	})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "form-1.created", []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, "responses.form-1.created", gotSubject)
	assert.NoError(t, gotErr)
	assert.Greater(t, gotLatency, time.Duration(0))
}

func TestPublisher_Close(t *testing.T) {
	js := new(mockJetStream)
	pub, err := NewPublisher(js, pubsub.PublisherOptions{})
	require.NoError(t, err)

	assert.NoError(t, pub.Close())
}
