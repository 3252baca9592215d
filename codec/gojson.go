package codec

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// GoJSON encodes with github.com/goccy/go-json. Documents written with GoJSON
// decode with JSON and vice versa.
type GoJSON struct{}

// Encode streams v to w without buffering the whole document first.
func (GoJSON) Encode(w io.Writer, v any) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Unmarshal decodes the JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns the unique name of the codec ("go-json").
func (GoJSON) Name() string { return "go-json" }
