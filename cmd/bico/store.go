package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/bico/blobstore"
	miniostore "github.com/hupe1980/bico/blobstore/minio"
	s3store "github.com/hupe1980/bico/blobstore/s3"
	"github.com/spf13/cobra"
)

func openStore(ctx context.Context, cfg StoreConfig) (blobstore.Store, error) {
	switch cfg.Type {
	case "", "local":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: local store needs a path")
		}
		return blobstore.NewLocalStore(cfg.Path), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("store: s3 store needs a bucket")
		}
		opts := []s3store.Option{s3store.WithPrefix(cfg.Prefix), s3store.WithPathStyle(cfg.PathStyle)}
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Endpoint))
		}
		return s3store.New(ctx, cfg.Bucket, opts...)
	case "minio":
		if cfg.Bucket == "" || cfg.Endpoint == "" {
			return nil, fmt.Errorf("store: minio store needs an endpoint and a bucket")
		}
		return miniostore.New(cfg.Endpoint, cfg.Bucket,
			miniostore.WithCredentials(cfg.AccessKey, cfg.SecretKey),
			miniostore.WithSecure(cfg.Secure),
			miniostore.WithRegion(cfg.Region),
			miniostore.WithPrefix(cfg.Prefix),
		)
	default:
		return nil, fmt.Errorf("store: unknown type %q", cfg.Type)
	}
}

// storeFlags binds the store flags shared by build and inspect.
func storeFlags(cmd *cobra.Command) []overlay {
	var (
		typ, path, bucket, prefix, endpoint string
	)
	fl := cmd.Flags()
	fl.StringVar(&typ, "store", "local", "store type: local, s3, minio or memory")
	fl.StringVar(&path, "store-path", "coresets", "directory of the local store")
	fl.StringVar(&bucket, "bucket", "", "bucket of the s3 or minio store")
	fl.StringVar(&prefix, "store-prefix", "", "key prefix of the s3 or minio store")
	fl.StringVar(&endpoint, "endpoint", "", "s3 or minio endpoint")

	return []overlay{
		{"store", func(c *Config) { c.Store.Type = typ }},
		{"store-path", func(c *Config) { c.Store.Path = path }},
		{"bucket", func(c *Config) { c.Store.Bucket = bucket }},
		{"store-prefix", func(c *Config) { c.Store.Prefix = prefix }},
		{"endpoint", func(c *Config) { c.Store.Endpoint = endpoint }},
	}
}
