package serialization

import (
	"encoding/gob"
	"io"
)

// Gob wraps a gob.Decoder / gob.Encoder pair. Records keep their
// time.Time values at full precision through it.
type Gob struct {
	dec *gob.Decoder
	enc *gob.Encoder
}

func (g *Gob) Decode(v any) error {
	return g.dec.Decode(v)
}

func (g *Gob) Encode(v any) error {
	return g.enc.Encode(v)
}

// GobDecoder reads one gob stream from r. Type information is sent once per
// stream, so every stored value gets its own.
func GobDecoder(r io.Reader) Decoder {
	return &Gob{dec: gob.NewDecoder(r)}
}

// GobEncoder writes a gob stream to w.
func GobEncoder(w io.Writer) Encoder {
	return &Gob{enc: gob.NewEncoder(w)}
}
