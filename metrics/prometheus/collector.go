// Package prometheus exports engine metrics through client_golang.
package prometheus

import (
	"time"

	"github.com/hupe1980/bico"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements bico.MetricsCollector with Prometheus instruments.
type Collector struct {
	opLatency   *prometheus.HistogramVec
	inserts     *prometheus.CounterVec
	batchItems  *prometheus.CounterVec
	coresetSize prometheus.Gauge
	rebuilds    prometheus.Counter
	rounds      prometheus.Counter
	threshold   prometheus.Gauge
	nodes       prometheus.Gauge
}

var _ bico.MetricsCollector = (*Collector)(nil)

// New creates a collector whose metric names start with namespace and
// registers it with reg. A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of engine operations",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op", "status"}),
		inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserts_total",
			Help:      "Single point inserts",
		}, []string{"status"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Rows submitted through batch inserts",
		}, []string{"status"}),
		coresetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coreset_size",
			Help:      "Size of the most recently computed coreset",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Threshold-doubling rebuilds",
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_rounds_total",
			Help:      "Threshold doublings across all rebuilds",
		}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold",
			Help:      "Base threshold after the last rebuild",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_after_rebuild",
			Help:      "Live nodes after the last rebuild",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.opLatency, c.inserts, c.batchItems, c.coresetSize,
		c.rebuilds, c.rounds, c.threshold, c.nodes,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements bico.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
	c.inserts.WithLabelValues(status(err)).Inc()
}

// RecordBatchInsert implements bico.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, failed int, d time.Duration) {
	st := "success"
	if failed > 0 {
		st = "error"
	}
	c.opLatency.WithLabelValues("batch_insert", st).Observe(d.Seconds())
	if count < 0 || failed < 0 || failed > count {
		return
	}
	c.batchItems.WithLabelValues("success").Add(float64(count - failed))
	c.batchItems.WithLabelValues("error").Add(float64(failed))
}

// RecordCompute implements bico.MetricsCollector.
func (c *Collector) RecordCompute(size int, d time.Duration) {
	c.opLatency.WithLabelValues("compute", "success").Observe(d.Seconds())
	c.coresetSize.Set(float64(size))
}

// RecordRebuild implements bico.MetricsCollector.
func (c *Collector) RecordRebuild(ev bico.RebuildEvent) {
	c.opLatency.WithLabelValues("rebuild", "success").Observe(ev.Duration.Seconds())
	c.rebuilds.Inc()
	c.rounds.Add(float64(ev.Rounds))
	c.threshold.Set(ev.ThresholdAfter)
	c.nodes.Set(float64(ev.NodesAfter))
}
