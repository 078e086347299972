package serialization

import (
	"bytes"
	"fmt"
	"io"
)

const (

	// JSONType represents the serialization type for JSON format.
	JSONType = "json"

	// GobType represents the serialization type for Gob format.
	GobType = "gob"
)

// Decoder and Encoder are the interface for serialization.
type Decoder interface {
	Decode(v any) error
}

// Encoder and Decoder are the interface for serialization.
type Encoder interface {
	Encode(v any) error
}

// Codec turns values into stored bytes and back.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type streamCodec struct {
	name       string
	newEncoder func(io.Writer) Encoder
	newDecoder func(io.Reader) Decoder
}

func (c *streamCodec) Name() string {
	return c.name
}

func (c *streamCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.newEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("%s encode: %w", c.name, err)
	}
	return buf.Bytes(), nil
}

func (c *streamCodec) Unmarshal(data []byte, v any) error {
	if err := c.newDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("%s decode: %w", c.name, err)
	}
	return nil
}

// NewJSONCodec returns the codec backed by JsonEncoder / JsonDecoder.
func NewJSONCodec() Codec {
	return &streamCodec{name: JSONType, newEncoder: JsonEncoder, newDecoder: JsonDecoder}
}

// NewGobCodec returns the codec backed by GobEncoder / GobDecoder.
func NewGobCodec() Codec {
	return &streamCodec{name: GobType, newEncoder: GobEncoder, newDecoder: GobDecoder}
}

// ByName resolves a codec from its configured name.
func ByName(name string) (Codec, error) {
	switch name {
	case JSONType, "":
		return NewJSONCodec(), nil
	case GobType:
		return NewGobCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported serialization type: %s", name)
	}
}
