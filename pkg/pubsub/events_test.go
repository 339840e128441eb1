package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) PublishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

type fakeResult struct{ err error }

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

func TestEventPublisherWrapsEnvelope(t *testing.T) {
	fake := &fakePublisher{}
	pub := NewEventPublisher(fake)
	pub.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	err := pub.Publish(context.Background(), "playbook.recommended", "cust-1", map[string]any{"fit_score": 88})
	require.NoError(t, err)
	require.Len(t, fake.messages, 1)

	msg := fake.messages[0]
	require.Equal(t, "playbook.recommended", msg.Attributes["event_type"])
	require.Equal(t, "cust-1", msg.Attributes["aggregate_id"])
	require.NotEmpty(t, msg.Attributes["event_id"])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	require.Equal(t, "cust-1", env.AggregateID)
	require.JSONEq(t, `{"fit_score":88}`, string(env.Data))
}

func TestEventPublisherPropagatesErrors(t *testing.T) {
	pub := NewEventPublisher(&fakePublisher{err: errors.New("unavailable")})
	err := pub.Publish(context.Background(), "playbook.recommended", "cust-1", struct{}{})
	require.ErrorContains(t, err, "unavailable")

	var nilPub *EventPublisher
	require.Error(t, nilPub.Publish(context.Background(), "x", "y", nil))
}

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "hp-prod"}
	require.Equal(t, "projects/hp-prod/topics/playbooks", c.topicResourceName("playbooks"))
	require.Equal(t, "projects/other/topics/t", c.topicResourceName("projects/other/topics/t"))
	require.Empty(t, c.topicResourceName(" "))
}
