// AngelaMos | 2026
// rabbitmq_test.go

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/identity-service/internal/config"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(
	name string, _, _, _, _ bool, _ amqp.Table,
) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(
	_ context.Context, _, key string, _, _ bool, msg amqp.Publishing,
) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type dialer struct {
	channels []*fakeChannel
	err      error
}

func (d *dialer) dial(string) (channel, func() error, error) {
	if d.err != nil {
		return nil, nil, d.err
	}
	ch := &fakeChannel{}
	d.channels = append(d.channels, ch)
	return ch, func() error { return nil }, nil
}

func TestNewDisabledIsNop(t *testing.T) {
	p, closeFn, err := New(config.EventsConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, closeFn())

	p.Publish(context.Background(), QueueUserRegistered, UserRegistered{})
}

func TestRabbitPublisherDeclaresDurableQueuesAndPublishes(t *testing.T) {
	d := &dialer{}
	p, err := newRabbitPublisher("amqp://test", d.dial, nil)
	require.NoError(t, err)
	require.Len(t, d.channels, 1)
	assert.Equal(t, Queues, d.channels[0].declared)

	event := UserRegistered{
		UserID:     "u1",
		UserName:   "jane",
		Email:      "jane@example.com",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	p.Publish(context.Background(), QueueUserRegistered, event)

	ch := d.channels[0]
	require.Len(t, ch.published, 1)
	assert.Equal(t, QueueUserRegistered, ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var got UserRegistered
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.Equal(t, event, got)
}

func TestRabbitPublisherLogsFailuresAndRedials(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d := &dialer{}
	p, err := newRabbitPublisher("amqp://test", d.dial, logger)
	require.NoError(t, err)

	d.channels[0].publishErr = errors.New("channel closed")
	p.Publish(context.Background(), QueueRolePermissionsUpdated, RolePermissionsUpdated{})

	assert.Contains(t, buf.String(), "event publish failed")
	assert.True(t, d.channels[0].closed)

	p.Publish(context.Background(), QueueRolePermissionsUpdated, RolePermissionsUpdated{})
	require.Len(t, d.channels, 2)
	assert.Len(t, d.channels[1].published, 1)
}

func TestRabbitPublisherDialFailure(t *testing.T) {
	d := &dialer{err: errors.New("connection refused")}
	_, err := newRabbitPublisher("amqp://test", d.dial, nil)
	assert.Error(t, err)
}
