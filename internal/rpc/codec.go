// Package rpc wires plain Go message structs into Connect handlers and clients.
//
// Connect's built-in codecs require protobuf messages. The services here use
// plain structs, so handlers and clients are built with a JSON codec that
// registers under Connect's "json" name and accepts any value.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec encodes messages as JSON. It replaces Connect's default "json" codec.
var Codec connect.Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}
