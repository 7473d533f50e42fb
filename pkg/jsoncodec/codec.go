// Package jsoncodec lets connect carry plain Go structs as JSON bodies.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

const Name = "json"

type codec struct{}

// New returns a connect.Codec that replaces the built-in protobuf JSON codec.
func New() connect.Codec {
	return codec{}
}

// Option registers the codec on a handler or client.
func Option() connect.Option {
	return connect.WithCodec(codec{})
}

func (codec) Name() string {
	return Name
}

func (codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
