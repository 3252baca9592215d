package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/bico"
	"github.com/hupe1980/bico/codec"
	"github.com/hupe1980/bico/distance"
	"github.com/hupe1980/bico/export"
	"github.com/hupe1980/bico/ingest"
	bicoprom "github.com/hupe1980/bico/metrics/prometheus"
	"github.com/hupe1980/bico/point"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// recordBuffer is the capacity of the channel between reader and engine.
	recordBuffer = 1024

	// progressInterval throttles progress log lines.
	progressInterval = 2 * time.Second
)

var errNoInput = errors.New("no input points and no dimension configured")

func newBuildCmd() *cobra.Command {
	var (
		format, metric, compression string
		header, skipInvalid, fit    bool
		dim, k, candidates, maxNode int
		weightColumn                int
		seed                        uint64
		exportPrefix, metricsAddr   string
		keep                        int
		logFormat, logLevel         string
	)

	cmd := &cobra.Command{
		Use:   "build [input]",
		Short: "Build a coreset from a point file",
		Long: `Build reads points from a CSV or JSON-lines file (optionally zstd or lz4
compressed, "-" for stdin), summarizes them into a coreset and writes the
coreset to the configured store.`,
		Args: cobra.MaximumNArgs(1),
	}

	overlays := []overlay{
		{"format", func(c *Config) { c.Input.Format = format }},
		{"header", func(c *Config) { c.Input.Header = header }},
		{"weight-column", func(c *Config) { c.Input.WeightColumn = weightColumn }},
		{"skip-invalid", func(c *Config) { c.Input.SkipInvalid = skipInvalid }},
		{"dim", func(c *Config) { c.Engine.Dimension = dim }},
		{"k", func(c *Config) { c.Engine.K = k }},
		{"candidates", func(c *Config) { c.Engine.Candidates = candidates }},
		{"max-nodes", func(c *Config) { c.Engine.MaxNodes = maxNode }},
		{"seed", func(c *Config) { c.Engine.Seed = &seed }},
		{"metric", func(c *Config) { c.Engine.Metric = metric }},
		{"fit", func(c *Config) { c.Fit.Enabled = fit }},
		{"export-prefix", func(c *Config) { c.Export.Prefix = exportPrefix }},
		{"compression", func(c *Config) { c.Export.Compression = compression }},
		{"keep", func(c *Config) { c.Export.Keep = keep }},
		{"metrics-addr", func(c *Config) { c.Metrics.Addr = metricsAddr }},
		{"log-format", func(c *Config) { c.Log.Format = logFormat }},
		{"log-level", func(c *Config) { c.Log.Level = logLevel }},
	}

	fl := cmd.Flags()
	fl.StringVar(&format, "format", "", "input format: csv or jsonl (default from file name)")
	fl.BoolVar(&header, "header", false, "skip the first CSV row")
	fl.IntVar(&weightColumn, "weight-column", -1, "CSV column holding the point weight")
	fl.BoolVar(&skipInvalid, "skip-invalid", false, "skip rejected points instead of failing")
	fl.IntVar(&dim, "dim", 0, "point dimension (default from the first record)")
	fl.IntVar(&k, "k", 0, "number of clusters")
	fl.IntVar(&candidates, "candidates", 0, "candidate children per level (default dim)")
	fl.IntVar(&maxNode, "max-nodes", 0, "coreset size bound (default 200*k)")
	fl.Uint64Var(&seed, "seed", 0, "random projection seed (default time-based)")
	fl.StringVar(&metric, "metric", "", "distance: squared_l2, l2, l1 or chebyshev")
	fl.BoolVar(&fit, "fit", false, "cluster the coreset and store the centers")
	fl.StringVar(&exportPrefix, "export-prefix", "", "name prefix of exports")
	fl.StringVar(&compression, "compression", "zstd", "export compression: none, lz4 or zstd")
	fl.IntVar(&keep, "keep", 0, "delete all but this many newest exports after writing (0 keeps all)")
	fl.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fl.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	fl.StringVar(&logLevel, "log-level", "info", "log level")
	overlays = append(overlays, storeFlags(cmd)...)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, overlays)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Input.Path = args[0]
		}
		res, err := runBuild(cmd.Context(), cfg, cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d points (%d rejected) -> %d coreset points, weight %g\n",
			res.Name, res.Accepted, res.Rejected, res.Size, res.Weight)
		return nil
	}
	return cmd
}

type buildResult struct {
	Name     string
	Accepted int
	Rejected int
	Size     int
	Weight   float64
}

func openInput(cfg InputConfig, stdin io.Reader) (*ingest.Reader, error) {
	var opts []ingest.Option
	opts = append(opts, ingest.WithHeader(cfg.Header), ingest.WithWeightColumn(cfg.WeightColumn))
	if cfg.Comma != "" {
		opts = append(opts, ingest.WithComma([]rune(cfg.Comma)[0]))
	}

	if cfg.Path == "" || cfg.Path == "-" {
		if cfg.Format == "" {
			return nil, errors.New("reading stdin needs --format")
		}
		format, err := ingest.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		return ingest.NewReader(stdin, format, opts...)
	}

	if cfg.Format == "" {
		return ingest.Open(cfg.Path, opts...)
	}
	format, err := ingest.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return ingest.OpenFormat(cfg.Path, format, opts...)
}

func newEngine(cfg EngineConfig, dim int, opts ...bico.Option) (*bico.Engine, error) {
	p := cfg.Candidates
	if p == 0 {
		p = dim
	}
	m := cfg.MaxNodes
	if m == 0 {
		m = bico.DefaultSummarySize(cfg.K)
	}
	seed := uint64(time.Now().UnixNano()) //nolint:gosec // seed
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	if cfg.Metric != "" {
		metric, err := distance.ParseMetric(cfg.Metric)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bico.WithMetric(metric))
	}
	return bico.New(dim, cfg.K, p, m, seed, opts...)
}

// serveMetrics starts a Prometheus endpoint and returns the collector and a
// shutdown function.
func serveMetrics(cfg MetricsConfig, logger *bico.Logger) (bico.MetricsCollector, func(), error) {
	if cfg.Addr == "" {
		return bico.NoopMetricsCollector{}, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	collector, err := bicoprom.New(reg, cfg.Namespace)
	if err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return collector, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func runBuild(ctx context.Context, cfg Config, stdin io.Reader, logOut io.Writer) (*buildResult, error) {
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	comp, err := codec.ParseCompression(cfg.Export.Compression)
	if err != nil {
		return nil, err
	}
	enc, ok := codec.ByName(cfg.Export.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Export.Codec)
	}
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	input, err := openInput(cfg.Input, stdin)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	collector, stopMetrics, err := serveMetrics(cfg.Metrics, logger)
	if err != nil {
		return nil, err
	}
	defer stopMetrics()

	engineOpts := []bico.Option{bico.WithLogger(logger), bico.WithMetricsCollector(collector)}
	var e *bico.Engine
	if cfg.Engine.Dimension > 0 {
		if e, err = newEngine(cfg.Engine, cfg.Engine.Dimension, engineOpts...); err != nil {
			return nil, err
		}
	}
	defer func() { _ = e.Close() }()

	res := &buildResult{}
	records := make(chan ingest.Record, recordBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		for {
			rec, err := input.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		progress := rate.Sometimes{Interval: progressInterval}
		n := 0
		for rec := range records {
			n++
			if e == nil {
				var err error
				if e, err = newEngine(cfg.Engine, len(rec.Coords), engineOpts...); err != nil {
					return err
				}
			}
			if err := e.Insert(point.NewWeighted(rec.Coords, rec.Weight)); err != nil {
				if cfg.Input.SkipInvalid && errors.Is(err, bico.ErrInvalidInput) {
					res.Rejected++
					continue
				}
				return fmt.Errorf("record %d: %w", n, err)
			}
			res.Accepted++
			progress.Do(func() {
				s := e.Stats()
				logger.Info("ingesting", "points", res.Accepted, "nodes", s.Nodes, "threshold", s.Threshold)
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errNoInput
	}

	sol, err := e.Compute()
	if err != nil {
		return nil, err
	}
	doc := export.FromSolution(sol, e.Stats())
	doc.Seed = e.Seed()

	if cfg.Fit.Enabled {
		if sol.Size() < e.K() {
			logger.Warn("coreset smaller than k, skipping fit", "size", sol.Size(), "k", e.K())
		} else {
			c, err := e.Fit(ctx,
				bico.WithMaxIterations(cfg.Fit.MaxIterations),
				bico.WithTolerance(cfg.Fit.Tolerance),
			)
			if err != nil {
				return nil, err
			}
			doc.SetClustering(c)
			logger.Info("fitted centers", "k", len(c.Centers), "inertia", c.Inertia, "iterations", c.Iterations)
		}
	}

	w := export.NewWriter(store,
		export.WithPrefix(cfg.Export.Prefix),
		export.WithCodec(enc),
		export.WithCompression(comp),
	)
	name, err := w.Write(ctx, doc)
	if err != nil {
		return nil, err
	}
	if cfg.Export.Keep > 0 {
		removed, err := export.Prune(ctx, store, cfg.Export.Prefix, cfg.Export.Keep)
		if err != nil {
			return nil, err
		}
		if len(removed) > 0 {
			logger.Info("pruned exports", "removed", len(removed), "keep", cfg.Export.Keep)
		}
	}

	res.Name = name
	res.Size = sol.Size()
	res.Weight = sol.TotalWeight()
	return res, nil
}
