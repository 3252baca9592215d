package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/bico"
)

// CurrentVersion is the document format written by this package.
const CurrentVersion = 1

var (
	// ErrUnsupportedVersion is returned for documents newer than CurrentVersion.
	ErrUnsupportedVersion = errors.New("export: unsupported document version")
	// ErrCorrupt is returned when a document is inconsistent.
	ErrCorrupt = errors.New("export: corrupt document")
)

// Document is the stored form of a coreset.
type Document struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Dimension   int     `json:"dimension"`
	K           int     `json:"k,omitempty"`
	MaxNodes    int     `json:"max_nodes,omitempty"`
	Metric      string  `json:"metric,omitempty"`
	Seed        uint64  `json:"seed,omitempty"`
	Points      uint64  `json:"points"`
	TotalWeight float64 `json:"total_weight"`

	Weights     []float64   `json:"weights"`
	Coordinates [][]float64 `json:"coordinates"`

	// Set when the coreset was clustered before export.
	Centers [][]float64 `json:"centers,omitempty"`
	Inertia float64     `json:"inertia,omitempty"`
}

// FromSolution builds a document from a coreset and the stats of the engine
// that produced it.
func FromSolution(sol *bico.Solution, stats bico.Stats) *Document {
	dim := sol.Dimension()
	flat := sol.Flat()
	doc := &Document{
		Version:     CurrentVersion,
		Dimension:   dim,
		K:           stats.K,
		MaxNodes:    stats.MaxNodes,
		Metric:      stats.Metric,
		Points:      sol.Count(),
		TotalWeight: sol.TotalWeight(),
		Weights:     sol.Weights(),
		Coordinates: make([][]float64, sol.Size()),
	}
	for i := range doc.Coordinates {
		doc.Coordinates[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return doc
}

// SetClustering records fitted centers on the document.
func (d *Document) SetClustering(c *bico.Clustering) {
	d.Centers = c.Centers
	d.Inertia = c.Inertia
}

// Validate checks the document for internal consistency.
func (d *Document) Validate() error {
	if d.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if d.Dimension < 1 {
		return fmt.Errorf("%w: dimension %d", ErrCorrupt, d.Dimension)
	}
	if len(d.Weights) != len(d.Coordinates) {
		return fmt.Errorf("%w: %d weights for %d points", ErrCorrupt, len(d.Weights), len(d.Coordinates))
	}
	for i, c := range d.Coordinates {
		if len(c) != d.Dimension {
			return fmt.Errorf("%w: point %d has %d coordinates, want %d", ErrCorrupt, i, len(c), d.Dimension)
		}
	}
	for i, c := range d.Centers {
		if len(c) != d.Dimension {
			return fmt.Errorf("%w: center %d has %d coordinates, want %d", ErrCorrupt, i, len(c), d.Dimension)
		}
	}
	return nil
}

// Solution rebuilds the coreset.
func (d *Document) Solution() (*bico.Solution, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	flat := make([]float64, 0, len(d.Coordinates)*d.Dimension)
	for _, c := range d.Coordinates {
		flat = append(flat, c...)
	}
	sol, err := bico.NewSolution(d.Dimension, d.Weights, flat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return sol, nil
}
