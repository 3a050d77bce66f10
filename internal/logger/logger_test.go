package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")

	log.Info().Str("session_id", "abc").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ServiceName, line["service"])
	assert.Equal(t, "abc", line["session_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestWatermillAdapterCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewWatermillAdapter(New(&buf, "debug", "json")).
		With(watermill.LogFields{"topic": "mocktest.events"})

	adapter.Error("publish failed", errors.New("broker down"), watermill.LogFields{"attempt": 2})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "watermill", line["component"])
	assert.Equal(t, "mocktest.events", line["topic"])
	assert.Equal(t, float64(2), line["attempt"])
	assert.Equal(t, "broker down", line["error"])
}
