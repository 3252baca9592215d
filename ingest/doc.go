// Package ingest streams points from CSV or JSON-lines input.
//
// Input may be compressed with zstd or lz4; the frame header is detected
// automatically. Each JSON-lines record is either a bare coordinate array
// or an object with "coords" and an optional "weight":
//
//	[1.5, 2.0]
//	{"coords": [3.0, 4.0], "weight": 2}
//
// CSV rows hold one coordinate per column, optionally with one column
// selected as the weight via WithWeightColumn.
package ingest
