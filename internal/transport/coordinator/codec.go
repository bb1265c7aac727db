package coordinator

import (
	"encoding/json"
	"fmt"
)

// jsonCodec marshals gRPC messages as plain JSON. The Coordinator speaks an
// explicit tagged JSON schema rather than protobuf, so the client forces this
// codec per call instead of shipping generated message types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return "json" }
