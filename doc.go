// Package bico summarizes unbounded point streams into small weighted
// coresets for k-means.
//
// An Engine maintains a tree of clustering features whose live node count
// never exceeds a fixed budget m. Each incoming point is merged into the
// closest node within that level's threshold or opens a new leaf; when the
// budget is exceeded the base threshold doubles and the leaves are
// re-inserted. At any time the leaves form a coreset: at most m weighted
// points whose total weight equals the weight inserted, and whose k-means
// cost approximates that of the full stream for any set of k centers.
//
// # Quick Start
//
//	e, _ := bico.New(2, 3, 2, 600, 42) // d=2, k=3, p=2, m=600, seed=42
//	defer e.Close()
//
//	for _, xy := range stream {
//	    _ = e.Insert(point.New(xy...))
//	}
//
//	sol, _ := e.Compute()
//	for i := range sol.Size() {
//	    w, _ := sol.Weight(i)
//	    c, _ := sol.Coordinates(i)
//	    fmt.Println(w, c)
//	}
//
// # Fitting Centers
//
// The coreset can be clustered directly with weighted k-means:
//
//	clustering, _ := e.Fit(ctx)
//	label, _ := clustering.Predict([]float64{1, 2})
//
// # Flat Buffers
//
// AddData, AddPoint and ComputeInto exchange points as row-major float64
// slices for callers that already hold their data that way.
//
// # Concurrency
//
// An Engine is single-threaded: it has no locks and starts no goroutines.
// Feed it from one goroutine or serialize access externally.
//
// # Errors
//
// Every error matches one of ErrInvalidConfiguration, ErrInvalidInput,
// ErrOutOfRange or ErrClosed with errors.Is; the typed details
// (ErrDimensionMismatch, ErrInvalidPoint, ...) are available through
// errors.As.
package bico
