package socketworker

import (
	"encoding/json"
	"fmt"
)

const (
	// EventSample carries a request from client to server.
	EventSample = "sample"
	// EventSampled carries the response back.
	EventSampled = "sampled"
)

type envelope struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// decodeEnvelope accepts the first argument of a socket.io event. Envelopes
// are sent as JSON text, but a decoded object is accepted as well.
func decodeEnvelope(args []any) (envelope, error) {
	var env envelope
	if len(args) == 0 {
		return env, fmt.Errorf("event has no payload")
	}
	var raw []byte
	switch v := args[0].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return env, fmt.Errorf("unexpected payload type %T: %w", v, err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.ID == "" {
		return env, fmt.Errorf("envelope has no id")
	}
	return env, nil
}

func encodeEnvelope(id string, payload []byte) (string, error) {
	b, err := json.Marshal(envelope{ID: id, Payload: payload})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
