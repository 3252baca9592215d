// Package export persists coresets to a blobstore.Store.
//
// A Writer streams a Document through a codec and an optional compressor into
// a blob named by a fresh UUID and then points the LATEST blob at it, so
// readers never observe a half-written export. Prune keeps only the newest
// exports:
//
//	w := export.NewWriter(store, export.WithCompression(codec.CompressionZSTD))
//	name, err := w.Write(ctx, export.FromSolution(sol, e.Stats()))
//
//	doc, err := export.Latest(ctx, store, "")
//	sol, err := doc.Solution()
//
//	removed, err := export.Prune(ctx, store, "", 5)
package export
