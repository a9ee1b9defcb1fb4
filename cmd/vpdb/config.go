package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vpdb"
	"github.com/hupe1980/vpdb/blobstore"
	miniostore "github.com/hupe1980/vpdb/blobstore/minio"
	s3store "github.com/hupe1980/vpdb/blobstore/s3"
	"github.com/hupe1980/vpdb/persistence"
)

// Config is the CLI configuration. It is read from an optional YAML file;
// command line flags override file values.
type Config struct {
	Dir          string `yaml:"dir"`
	Backend      string `yaml:"backend"`
	LeafCapacity int    `yaml:"leaf_capacity"`
	ShardDepth   int    `yaml:"shard_depth"`
	ExactPruning bool   `yaml:"exact_pruning"`
	Compression  string `yaml:"compression"`
	LogLevel     string `yaml:"log_level"`

	S3    S3Config          `yaml:"s3"`
	MinIO miniostore.Config `yaml:"minio"`
}

// S3Config selects the bucket of the s3 backend. Credentials come from the
// default AWS chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Dir:          ".",
		Backend:      "local",
		LeafCapacity: vpdb.DefaultLeafCapacity,
		ShardDepth:   vpdb.DefaultShardDepth,
		Compression:  "none",
		LogLevel:     "warn",
	}
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		// An empty file keeps the defaults.
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	})
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) openStore(ctx context.Context) (blobstore.Store, error) {
	switch c.Backend {
	case "", "local":
		return nil, nil
	case "s3":
		if c.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 backend needs a bucket")
		}
		return s3store.New(ctx, c.S3.Bucket,
			s3store.WithPrefix(c.S3.Prefix),
			s3store.WithRegion(c.S3.Region),
			s3store.WithEndpoint(c.S3.Endpoint),
			s3store.WithPathStyle(c.S3.PathStyle),
		)
	case "minio":
		return miniostore.New(ctx, c.MinIO)
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

func (c Config) options(ctx context.Context) ([]vpdb.Option, error) {
	compression, err := blobstore.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	opts := []vpdb.Option{
		vpdb.WithLeafCapacity(c.LeafCapacity),
		vpdb.WithShardDepth(c.ShardDepth),
		vpdb.WithExactPruning(c.ExactPruning),
		vpdb.WithCompression(compression),
		vpdb.WithLogLevel(level),
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, vpdb.WithStore(store))
	}
	return opts, nil
}
