// Package apiconnect binds the api messages to Connect handlers and clients.
package apiconnect

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec marshals api messages as JSON. It registers under the name "json",
// replacing Connect's protobuf-only JSON codec, so plain HTTP clients can
// call the services with Content-Type: application/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func withJSON() connect.Option { return connect.WithCodec(Codec{}) }

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	// An empty body is an empty message.
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}
