package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/bico/codec"
)

// Format is an input encoding.
type Format uint8

const (
	FormatCSV Format = iota
	FormatJSONL
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSONL:
		return "jsonl"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "jsonl", "ndjson", "json":
		return FormatJSONL, nil
	default:
		return 0, fmt.Errorf("ingest: unknown format %q", name)
	}
}

// FormatFromPath infers the format from a file name such as
// "points.csv.zst".
func FormatFromPath(path string) (Format, error) {
	if codec.CompressionFromPath(path) != codec.CompressionNone {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("ingest: cannot infer format of %q", path)
	}
	return ParseFormat(ext)
}
