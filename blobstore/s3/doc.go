// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("coresets/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	w := export.NewWriter(store)
//	name, err := w.Write(ctx, export.FromSolution(sol, engine.Stats()))
//
// # Features
//
//   - Multipart streaming uploads through the SDK upload manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Custom endpoints and path-style addressing for S3-compatible services
package s3
