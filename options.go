package bico

import (
	"log/slog"

	"github.com/hupe1980/bico/distance"
	"github.com/hupe1980/bico/point"
)

type options struct {
	metric           distance.Metric
	distanceFunc     distance.Func
	weightPolicy     point.WeightPolicy
	projections      int
	maxDepth         int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Engine construction.
type Option func(*options)

// WithMetric selects the distance used to match points against tree nodes.
//
// The default is distance.MetricSquaredL2, the only metric for which leaf
// k-means cost is bounded by the base threshold.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithDistanceFunc installs a custom distance. It takes precedence over
// WithMetric and disables the leaf cost bound.
func WithDistanceFunc(fn distance.Func) Option {
	return func(o *options) {
		o.distanceFunc = fn
	}
}

// WithWeightPolicy configures how point weights are read on insert and
// written when a Solution materializes points.
//
// If nil is passed, point.DefaultWeightPolicy is used.
func WithWeightPolicy(p point.WeightPolicy) Option {
	return func(o *options) {
		if p == nil {
			p = point.DefaultWeightPolicy{}
		}
		o.weightPolicy = p
	}
}

// WithProjections sets the number of random directions used to estimate the
// initial threshold. Defaults to the dimension.
func WithProjections(n int) Option {
	return func(o *options) {
		o.projections = n
	}
}

// WithMaxDepth bounds the number of tree levels below the root.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bico.BasicMetricsCollector{}
//	e, _ := bico.New(2, 3, 2, 600, 1, bico.WithMetricsCollector(metrics))
//	// ... insert points ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Rebuilds: %d\n", stats.InsertCount, stats.RebuildCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := bico.NewJSONLogger(slog.LevelDebug)
//	e, _ := bico.New(2, 3, 2, 600, 1, bico.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metric:           distance.MetricSquaredL2,
		weightPolicy:     point.DefaultWeightPolicy{},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
