package serialization

import (
	"encoding/json"
	"io"
)

// Json wraps a json.Decoder / json.Encoder pair.
type Json struct {
	dec *json.Decoder
	enc *json.Encoder
}

func (j *Json) Decode(v any) error {
	return j.dec.Decode(v)
}

func (j *Json) Encode(v any) error {
	return j.enc.Encode(v)
}

// JsonDecoder reads JSON documents from r.
func JsonDecoder(r io.Reader) Decoder {
	return &Json{dec: json.NewDecoder(r)}
}

// JsonEncoder writes JSON documents to w without HTML escaping,
// headlines routinely carry '&' and '<'.
func JsonEncoder(w io.Writer) Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Json{enc: enc}
}
