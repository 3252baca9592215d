package bico

import (
	"context"
	"time"

	"github.com/hupe1980/bico/point"
)

// AddData inserts n points stored row-major in data, each with weight 1.
//
// The whole batch is validated before anything is inserted: on error the
// engine is unchanged.
func (e *Engine) AddData(data []float64, n int) error {
	if e.closed {
		return ErrClosed
	}

	start := time.Now()
	err := e.addData(data, n)
	failed := 0
	if err != nil {
		failed = n
	}
	e.metricsCollector.RecordBatchInsert(n, failed, time.Since(start))
	e.logger.LogBatchInsert(context.Background(), n, err)
	return err
}

func (e *Engine) addData(data []float64, n int) error {
	if n < 0 {
		return &ErrInvalidPoint{Row: -1, Reason: "negative row count"}
	}
	if len(data) != n*e.dim {
		return &ErrDimensionMismatch{Expected: n * e.dim, Actual: len(data)}
	}
	for i := range n {
		if err := e.validate(data[i*e.dim:(i+1)*e.dim], 1, i); err != nil {
			return err
		}
	}
	for i := range n {
		e.tree.Insert(data[i*e.dim:(i+1)*e.dim], 1)
	}
	return nil
}

// AddPoint inserts one point with weight 1. coords must hold exactly
// Dimension values; it is not retained.
func (e *Engine) AddPoint(coords []float64) error {
	return e.Insert(point.New(coords...))
}

// ComputeInto extracts the coreset into caller-owned buffers and returns its
// size. Coordinate j of point i is written to points[i*Dimension+j].
//
// If either buffer is too small an *ErrBufferTooSmall is returned and
// neither buffer is written.
func (e *Engine) ComputeInto(weights, points []float64) (int, error) {
	s, err := e.Compute()
	if err != nil {
		return 0, err
	}
	if len(weights) < s.Size() {
		return 0, &ErrBufferTooSmall{Buffer: "weights", Need: s.Size(), Got: len(weights)}
	}
	if len(points) < len(s.coords) {
		return 0, &ErrBufferTooSmall{Buffer: "points", Need: len(s.coords), Got: len(points)}
	}
	copy(weights, s.weights)
	copy(points, s.coords)
	return s.Size(), nil
}
