package json

import (
	"bytes"
	stdjson "encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	Marshal    = json.Marshal
	Unmarshal  = json.Unmarshal
	Valid      = json.Valid
	NewDecoder = json.NewDecoder
	NewEncoder = json.NewEncoder
)

type RawMessage = jsoniter.RawMessage

type Decoder = jsoniter.Decoder

type Encoder = jsoniter.Encoder

// Reindent validates a JSON document and re-encodes it with a two-space
// indent, keeping object keys in the order the server sent them.
func Reindent(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if !Valid(data) {
		var v interface{}
		if err := Unmarshal(data, &v); err != nil {
			return "", err
		}
	}
	var buf bytes.Buffer
	if err := stdjson.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
