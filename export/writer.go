package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/bico/blobstore"
	"github.com/hupe1980/bico/codec"
)

// LatestName is the blob holding the name of the newest export.
const LatestName = "LATEST"

// ErrNoExports is returned by Latest when nothing was written yet.
var ErrNoExports = errors.New("export: no exports")

// Writer stores documents in a blobstore.
type Writer struct {
	store       blobstore.Store
	codec       codec.Codec
	compression codec.Compression
	prefix      string
	now         func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithCodec sets the codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(w *Writer) {
		if c != nil {
			w.codec = c
		}
	}
}

// WithCompression sets the frame compression. Defaults to none.
func WithCompression(c codec.Compression) Option {
	return func(w *Writer) { w.compression = c }
}

// WithPrefix places exports and the LATEST pointer under prefix.
func WithPrefix(prefix string) Option {
	return func(w *Writer) { w.prefix = prefix }
}

// NewWriter creates a writer for store.
func NewWriter(store blobstore.Store, optFns ...Option) *Writer {
	w := &Writer{
		store: store,
		codec: codec.Default,
		now:   time.Now,
	}
	for _, fn := range optFns {
		fn(w)
	}
	return w
}

// Write stores doc and makes it the latest export. It fills in the version,
// a random ID and the creation time when unset, and returns the blob name.
func (w *Writer) Write(ctx context.Context, doc *Document) (string, error) {
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = w.now().UTC()
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}

	name := w.prefix + doc.ID + ".json" + w.compression.Extension()
	blob, err := w.store.Create(ctx, name)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", name, err)
	}
	err = w.encode(blob, doc)
	if cerr := blob.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("export: write %s: %w", name, cerr)
	}
	if err != nil {
		_ = w.store.Delete(ctx, name)
		return "", err
	}
	if err := w.store.Put(ctx, w.prefix+LatestName, []byte(name)); err != nil {
		return "", fmt.Errorf("export: update %s: %w", LatestName, err)
	}
	return name, nil
}

// encode streams doc through the compressor into dst.
func (w *Writer) encode(dst io.Writer, doc *Document) error {
	cw, err := codec.NewWriter(w.compression, dst)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := w.codec.Encode(cw, doc); err != nil {
		_ = cw.Close()
		return fmt.Errorf("export: encode: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Read loads the document stored under name. Compression is detected from
// the frame header.
func Read(ctx context.Context, store blobstore.Store, name string) (*Document, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("export: get %s: %w", name, err)
	}
	data, err = codec.Decompress(codec.DetectCompression(data), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var doc Document
	if err := codec.Default.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Latest loads the newest document written under prefix.
func Latest(ctx context.Context, store blobstore.Store, prefix string) (*Document, error) {
	ptr, err := store.Get(ctx, prefix+LatestName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrNoExports
	}
	if err != nil {
		return nil, fmt.Errorf("export: get %s: %w", LatestName, err)
	}
	return Read(ctx, store, strings.TrimSpace(string(ptr)))
}

// List returns the names of all exports under prefix.
func List(ctx context.Context, store blobstore.Store, prefix string) ([]string, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.Contains(strings.TrimPrefix(n, prefix), ".json") {
			out = append(out, n)
		}
	}
	return out, nil
}

// Prune deletes all but the keep newest exports under prefix, ordered by
// creation time, and returns the removed names. The export LATEST points to
// is never removed.
func Prune(ctx context.Context, store blobstore.Store, prefix string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("export: keep must be at least 1, got %d", keep)
	}
	names, err := List(ctx, store, prefix)
	if err != nil {
		return nil, err
	}

	var latest string
	ptr, err := store.Get(ctx, prefix+LatestName)
	switch {
	case err == nil:
		latest = strings.TrimSpace(string(ptr))
	case !errors.Is(err, blobstore.ErrNotFound):
		return nil, fmt.Errorf("export: get %s: %w", LatestName, err)
	}

	type dated struct {
		name string
		at   time.Time
	}
	exports := make([]dated, 0, len(names))
	kept := 0
	for _, n := range names {
		if n == latest {
			kept++
			continue
		}
		doc, err := Read(ctx, store, n)
		if err != nil {
			return nil, err
		}
		exports = append(exports, dated{name: n, at: doc.CreatedAt})
	}
	slices.SortStableFunc(exports, func(a, b dated) int { return b.at.Compare(a.at) })

	var removed []string
	for _, e := range exports {
		if kept < keep {
			kept++
			continue
		}
		if err := store.Delete(ctx, e.name); err != nil {
			return removed, fmt.Errorf("export: delete %s: %w", e.name, err)
		}
		removed = append(removed, e.name)
	}
	return removed, nil
}
