package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SyncEvent is the validated form of an inbound webhook trigger. Raw
// payloads arrive either as a bare JSON object or wrapped in
// {"body": "<json-string>"} depending on the delivery path.
type SyncEvent struct {
	EntityID   int64  `json:"entity_id" validate:"required,gt=0"`
	EntityPath string `json:"entity_path"`
}

type webhookEnvelope struct {
	Body    json.RawMessage `json:"body"`
	Payload json.RawMessage `json:"payload"`
}

type webhookPayload struct {
	EntityID   json.Number `json:"entity_id"`
	EntityPath string      `json:"entity_path"`
}

// ParseSyncEvent unwraps and validates a webhook trigger body. The entity ID
// may arrive as a number or a numeric string; both coerce to int64.
func ParseSyncEvent(raw []byte) (*SyncEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid event body: %w", err)
	}

	payloadRaw := envelope.Payload
	if len(envelope.Body) > 0 {
		// The wrapped form carries the real body as a JSON-encoded string.
		var inner string
		if err := json.Unmarshal(envelope.Body, &inner); err != nil {
			return nil, fmt.Errorf("invalid event body wrapper: %w", err)
		}
		var unwrapped webhookEnvelope
		if err := json.Unmarshal([]byte(inner), &unwrapped); err != nil {
			return nil, fmt.Errorf("invalid wrapped event body: %w", err)
		}
		payloadRaw = unwrapped.Payload
	}

	if len(payloadRaw) == 0 || bytes.Equal(payloadRaw, []byte("null")) {
		return nil, fmt.Errorf("missing payload in event body")
	}

	decoder := json.NewDecoder(bytes.NewReader(payloadRaw))
	decoder.UseNumber()
	var payload webhookPayload
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}

	if payload.EntityID == "" {
		return nil, fmt.Errorf("missing required field: entity_id")
	}

	entityID, err := strconv.ParseInt(payload.EntityID.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("entity_id is not an integer: %w", err)
	}

	return &SyncEvent{
		EntityID:   entityID,
		EntityPath: payload.EntityPath,
	}, nil
}
