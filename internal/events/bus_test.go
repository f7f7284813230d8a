package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	key   string
	value []byte
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{key: string(key), value: value})
	return nil
}

func newTestBus(sender Sender, logs *bytes.Buffer) *EventBus {
	bus := NewEventBus(sender, slog.New(slog.NewTextHandler(logs, nil)))
	bus.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }
	bus.newID = func() string { return "evt-1" }
	return bus
}

func TestRecordSearch(t *testing.T) {
	sender := &fakeSender{}
	bus := newTestBus(sender, &bytes.Buffer{})

	bus.RecordSearch(context.Background(), "vpn issue", "Network", 1, 3)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, TypeSearch, sender.sent[0].key)

	var event Event
	require.NoError(t, json.Unmarshal(sender.sent[0].value, &event))
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, TypeSearch, event.Type)
	assert.True(t, event.Timestamp.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))

	var payload SearchPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, SearchPayload{Query: "vpn issue", Category: "Network", Total: 1, TookMS: 3}, payload)
}

func TestRecordAnalysis(t *testing.T) {
	sender := &fakeSender{}
	bus := newTestBus(sender, &bytes.Buffer{})

	bus.RecordAnalysis(context.Background(), []string{"forgot", "password"}, 2, 0)

	require.Len(t, sender.sent, 1)
	var event Event
	require.NoError(t, json.Unmarshal(sender.sent[0].value, &event))
	assert.Equal(t, TypeAnalyze, event.Type)

	var payload AnalyzePayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, []string{"forgot", "password"}, payload.Keywords)
	assert.Equal(t, 2, payload.Found)
}

func TestPublishFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	bus := newTestBus(&fakeSender{err: errors.New("broker down")}, &logs)

	bus.RecordSearch(context.Background(), "email", "", 0, 1)

	assert.Contains(t, logs.String(), "failed to publish event")
	assert.Contains(t, logs.String(), "broker down")
}
