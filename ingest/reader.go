package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/bico/codec"
)

// ErrMalformed is returned for records that cannot be parsed.
var ErrMalformed = errors.New("ingest: malformed record")

// Record is one input point.
type Record struct {
	Coords []float64
	Weight float64 // 1 unless the input carries a weight
}

type options struct {
	compression  codec.Compression
	detect       bool
	header       bool
	comma        rune
	weightColumn int
}

// Option configures a Reader.
type Option func(*options)

// WithCompression disables detection and decompresses with c.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
		o.detect = false
	}
}

// WithHeader skips the first CSV row.
func WithHeader(header bool) Option {
	return func(o *options) { o.header = header }
}

// WithComma sets the CSV field delimiter.
func WithComma(r rune) Option {
	return func(o *options) { o.comma = r }
}

// WithWeightColumn reads the weight from CSV column i. Negative disables.
func WithWeightColumn(i int) Option {
	return func(o *options) { o.weightColumn = i }
}

// Reader yields records from an input stream. It is not safe for
// concurrent use.
type Reader struct {
	src     io.ReadCloser
	file    *os.File
	next    func() (Record, error)
	records int
}

// NewReader reads records in format from r.
func NewReader(r io.Reader, format Format, optFns ...Option) (*Reader, error) {
	opts := options{detect: true, comma: ',', weightColumn: -1}
	for _, fn := range optFns {
		fn(&opts)
	}

	br := bufio.NewReader(r)
	c := opts.compression
	if opts.detect {
		// Short inputs cannot carry a frame header.
		magic, _ := br.Peek(4)
		c = codec.DetectCompression(magic)
	}
	src, err := codec.NewReader(c, br)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	rd := &Reader{src: src}
	switch format {
	case FormatCSV:
		rd.next = rd.csvReader(src, opts)
	case FormatJSONL:
		rd.next = rd.jsonReader(src)
	default:
		_ = src.Close()
		return nil, fmt.Errorf("ingest: unknown format %s", format)
	}
	return rd, nil
}

// Open opens the file at path, inferring the format from its name.
func Open(path string, optFns ...Option) (*Reader, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return OpenFormat(path, format, optFns...)
}

// OpenFormat opens the file at path and reads it in format.
func OpenFormat(path string, format Format, optFns ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, format, optFns...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() (Record, error) {
	rec, err := r.next()
	if err != nil {
		return Record{}, err
	}
	r.records++
	return rec, nil
}

// Records returns the number of records read so far.
func (r *Reader) Records() int { return r.records }

// Close releases the decompressor and any file opened by Open.
func (r *Reader) Close() error {
	err := r.src.Close()
	if r.file != nil {
		err = errors.Join(err, r.file.Close())
	}
	return err
}

func (r *Reader) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: record %d: %s", ErrMalformed, r.records+1, fmt.Sprintf(format, args...))
}

func (r *Reader) csvReader(src io.Reader, opts options) func() (Record, error) {
	cr := csv.NewReader(src)
	cr.Comma = opts.comma
	cr.Comment = '#'
	cr.ReuseRecord = true
	skipHeader := opts.header

	return func() (Record, error) {
		fields, err := cr.Read()
		if err == nil && skipHeader {
			skipHeader = false
			fields, err = cr.Read()
		}
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if err != nil {
			return Record{}, r.malformed("%v", err)
		}

		rec := Record{Weight: 1}
		ncoords := len(fields)
		if opts.weightColumn >= 0 {
			if opts.weightColumn >= len(fields) {
				return Record{}, r.malformed("weight column %d out of %d fields", opts.weightColumn, len(fields))
			}
			ncoords--
		}
		rec.Coords = make([]float64, 0, ncoords)
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return Record{}, r.malformed("field %d: %v", i, err)
			}
			if i == opts.weightColumn {
				rec.Weight = v
				continue
			}
			rec.Coords = append(rec.Coords, v)
		}
		return rec, nil
	}
}

type jsonRecord struct {
	Coords []float64 `json:"coords"`
	Weight *float64  `json:"weight"`
}

func (r *Reader) jsonReader(src io.Reader) func() (Record, error) {
	dec := gojson.NewDecoder(src)

	return func() (Record, error) {
		var raw gojson.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return Record{}, io.EOF
			}
			return Record{}, r.malformed("%v", err)
		}

		raw = bytes.TrimSpace(raw)
		rec := Record{Weight: 1}
		switch {
		case len(raw) > 0 && raw[0] == '[':
			if err := gojson.Unmarshal(raw, &rec.Coords); err != nil {
				return Record{}, r.malformed("%v", err)
			}
		case len(raw) > 0 && raw[0] == '{':
			var jr jsonRecord
			if err := gojson.Unmarshal(raw, &jr); err != nil {
				return Record{}, r.malformed("%v", err)
			}
			if jr.Coords == nil {
				return Record{}, r.malformed("missing coords")
			}
			rec.Coords = jr.Coords
			if jr.Weight != nil {
				rec.Weight = *jr.Weight
			}
		default:
			return Record{}, r.malformed("expected array or object")
		}
		return rec, nil
	}
}
