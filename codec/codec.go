// Package codec centralizes how exported coresets are encoded.
//
// Both codecs produce plain JSON and read each other's output. Compression
// frames carry a magic number, so readers recover the compression with
// DetectCompression.
package codec

import "io"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode writes v to w as one JSON value followed by a newline.
	Encode(w io.Writer, v any) error
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
