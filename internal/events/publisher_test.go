package events

import (
	"context"
	"testing"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionEventTerminalFields(t *testing.T) {
	now := time.Now()
	score := 60
	s := &model.MockTestSession{
		ID:       uuid.New(),
		UserID:   "u1",
		CourseID: "c1",
		Status:   model.MockTestStatusSubmitted,
		Score:    &score,
	}

	e := NewSessionEvent(s, now)
	assert.Equal(t, EventMockTestSubmitted, e.Type)
	assert.True(t, e.IsTerminal())
	require.NotNil(t, e.Pass)
	assert.True(t, *e.Pass)
	assert.Equal(t, 60, *e.Score)

	s.Status, s.Score = model.MockTestStatusActive, nil
	started := NewSessionEvent(s, now)
	assert.Equal(t, EventMockTestStarted, started.Type)
	assert.False(t, started.IsTerminal())
	assert.Nil(t, started.Score)
	assert.NotEqual(t, e.ID, started.ID)
}

func TestWatermillPublisherOverGoChannel(t *testing.T) {
	bus, err := NewBus(&config.Config{
		EventsDriver: config.EventsDriverGoChannel,
		EventsTopic:  "mocktest.events.test",
	}, zerolog.Nop())
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscriber.Subscribe(ctx, bus.Topic)
	require.NoError(t, err)

	score := 30
	s := &model.MockTestSession{ID: uuid.New(), UserID: "u1", CourseID: "c1",
		Status: model.MockTestStatusExpired, Score: &score}
	sent := NewSessionEvent(s, time.Now())
	require.NoError(t, NewWatermillPublisher(bus, zerolog.Nop()).Publish(ctx, sent))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, sent.ID, msg.UUID)
		assert.Equal(t, string(EventMockTestExpired), msg.Metadata.Get("event_type"))

		got, err := Decode(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.SessionID)
		assert.Equal(t, 30, *got.Score)
		assert.False(t, *got.Pass)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}

func TestNewBusRejectsUnknownDriver(t *testing.T) {
	_, err := NewBus(&config.Config{EventsDriver: "carrier-pigeon"}, zerolog.Nop())
	assert.Error(t, err)
}
