package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncEventBarePayload(t *testing.T) {
	event, err := ParseSyncEvent([]byte(`{"payload": {"entity_id": 123, "entity_path": "/events/123"}}`))

	require.NoError(t, err)
	assert.Equal(t, int64(123), event.EntityID)
	assert.Equal(t, "/events/123", event.EntityPath)
}

func TestParseSyncEventWrappedBody(t *testing.T) {
	// Some delivery paths wrap the real body as a JSON-encoded string
	raw := []byte(`{"body": "{\"payload\": {\"entity_id\": 456, \"entity_path\": \"/events/456\"}}"}`)

	event, err := ParseSyncEvent(raw)

	require.NoError(t, err)
	assert.Equal(t, int64(456), event.EntityID)
	assert.Equal(t, "/events/456", event.EntityPath)
}

func TestParseSyncEventCoercesStringID(t *testing.T) {
	event, err := ParseSyncEvent([]byte(`{"payload": {"entity_id": "789"}}`))

	require.NoError(t, err)
	assert.Equal(t, int64(789), event.EntityID)
	assert.Equal(t, "", event.EntityPath)
}

func TestParseSyncEventRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{not json`},
		{"missing payload", `{"other": 1}`},
		{"null payload", `{"payload": null}`},
		{"missing entity id", `{"payload": {"entity_path": "/events/1"}}`},
		{"non-numeric entity id", `{"payload": {"entity_id": "abc"}}`},
		{"body not a string", `{"body": {"payload": {"entity_id": 1}}}`},
		{"body with invalid inner json", `{"body": "{broken"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSyncEvent([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestSyncEventValidation(t *testing.T) {
	vs := NewValidationService()

	assert.NoError(t, vs.ValidateStruct(&SyncEvent{EntityID: 123}))

	err := vs.ValidateStruct(&SyncEvent{EntityID: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity_id")
}
