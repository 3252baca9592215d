package codec

import (
	"encoding/json"
	"io"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option: exports written with it can be read by any
// JSON tooling. NaN and infinities cannot be encoded, which the engine never
// produces.
type JSON struct{}

// Encode streams v to w.
func (JSON) Encode(w io.Writer, v any) error { return json.NewEncoder(w).Encode(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}
