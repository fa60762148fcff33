package rpc

import "encoding/json"

// jsonCodec lets Connect carry plain Go structs as JSON. It replaces the
// default protobuf codecs, so both handlers and clients must use it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
