package bico

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each single-point insert.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordBatchInsert is called after each bulk ingestion.
	// count is the number of rows attempted, failed is the number rejected.
	RecordBatchInsert(count, failed int, duration time.Duration)

	// RecordCompute is called after each coreset extraction.
	// size is the number of coreset points produced.
	RecordCompute(size int, duration time.Duration)

	// RecordRebuild is called after each tree rebuild.
	RecordRebuild(ev RebuildEvent)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordCompute(int, time.Duration)          {}
func (NoopMetricsCollector) RecordRebuild(RebuildEvent)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	BatchInsertCount  atomic.Int64
	BatchInsertItems  atomic.Int64
	BatchInsertFailed atomic.Int64
	ComputeCount      atomic.Int64
	ComputeTotalNanos atomic.Int64
	LastCoresetSize   atomic.Int64
	RebuildCount      atomic.Int64
	RebuildRounds     atomic.Int64
	RebuildTotalNanos atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, failed int, duration time.Duration) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertFailed.Add(int64(failed))
}

// RecordCompute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompute(size int, duration time.Duration) {
	b.ComputeCount.Add(1)
	b.ComputeTotalNanos.Add(duration.Nanoseconds())
	b.LastCoresetSize.Store(int64(size))
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(ev RebuildEvent) {
	b.RebuildCount.Add(1)
	b.RebuildRounds.Add(int64(ev.Rounds))
	b.RebuildTotalNanos.Add(ev.Duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BatchInsertCount:  b.BatchInsertCount.Load(),
		BatchInsertItems:  b.BatchInsertItems.Load(),
		BatchInsertFailed: b.BatchInsertFailed.Load(),
		ComputeCount:      b.ComputeCount.Load(),
		ComputeAvgNanos:   avg(b.ComputeTotalNanos.Load(), b.ComputeCount.Load()),
		LastCoresetSize:   b.LastCoresetSize.Load(),
		RebuildCount:      b.RebuildCount.Load(),
		RebuildRounds:     b.RebuildRounds.Load(),
		RebuildAvgNanos:   avg(b.RebuildTotalNanos.Load(), b.RebuildCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	BatchInsertCount  int64
	BatchInsertItems  int64
	BatchInsertFailed int64
	ComputeCount      int64
	ComputeAvgNanos   int64
	LastCoresetSize   int64
	RebuildCount      int64
	RebuildRounds     int64
	RebuildAvgNanos   int64
}
