package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_RecordsMessages(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()

	require.NoError(t, pub.Publish(context.Background(), "responses.form-1.created", []byte("a")))
	require.NoError(t, pub.Publish(context.Background(), "responses.form-2.created", []byte("b")))

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "responses.form-1.created", msgs[0].Subject)
	assert.Equal(t, []byte("a"), msgs[0].Data)
	assert.Equal(t, "responses.form-2.created", msgs[1].Subject)
}

func TestPublisher_Subscribe(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()

	ch := pub.Subscribe()

	require.NoError(t, pub.Publish(context.Background(), "responses.form-1.created", []byte("a")))

	msg := <-ch
	assert.Equal(t, "responses.form-1.created", msg.Subject)
	assert.Equal(t, []byte("a"), msg.Data)
}

func TestPublisher_PublishAfterClose(t *testing.T) {
	pub := NewPublisher()
	require.NoError(t, pub.Close())

	err := pub.Publish(context.Background(), "responses.form-1.created", []byte("a"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_CloseIdempotent(t *testing.T) {
	pub := NewPublisher()
	assert.NoError(t, pub.Close())
	assert.NoError(t, pub.Close())
}

func TestPublisher_DataCopied(t *testing.T) {
	pub := NewPublisher()
	defer pub.Close()

	data := []byte("original")
	require.NoError(t, pub.Publish(context.Background(), "s", data))
	data[0] = 'X'

	assert.Equal(t, []byte("original"), pub.Messages()[0].Data)
}
