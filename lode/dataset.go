// Package lode exports archived battles to a Lode dataset as JSONL
// snapshots, partitioned for downstream analysis.
package lode

import (
	"context"
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"
)

// DefaultDataset is the dataset id used when none is configured.
const DefaultDataset = "battlelog"

// Backend names the storage behind a dataset.
type Backend string

// Supported backends.
const (
	BackendFS     Backend = "fs"
	BackendS3     Backend = "s3"
	BackendMemory Backend = "memory"
)

// Config selects and configures the export dataset.
type Config struct {
	// Dataset is the Lode dataset id.
	Dataset string
	// Backend is fs, s3 or memory.
	Backend Backend
	// Path is the root directory for fs, or "bucket/prefix" for s3.
	Path string
	// Region, Endpoint and UsePathStyle apply to s3 only.
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// Validate checks that the backend is known and has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFS:
		if c.Path == "" {
			return errors.New("export path is required for fs backend")
		}
	case BackendS3:
		if c.Path == "" {
			return errors.New("export path (bucket/prefix) is required for s3 backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown export backend %q (want fs, s3 or memory)", c.Backend)
	}
	return nil
}

// OpenDataset builds the dataset described by cfg.
func OpenDataset(ctx context.Context, cfg Config) (lode.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name := cfg.Dataset
	if name == "" {
		name = DefaultDataset
	}

	var factory lode.StoreFactory
	switch cfg.Backend {
	case BackendFS:
		factory = lode.NewFSFactory(cfg.Path)
	case BackendS3:
		bucket, prefix := ParseS3Path(cfg.Path)
		f, err := NewS3Factory(ctx, S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, WrapInitError(err, name)
		}
		factory = f
	case BackendMemory:
		factory = lode.NewMemoryFactory()
	}

	return NewDataset(name, factory)
}

// NewDataset creates a dataset with the battle export layout on factory.
// Reads and writes must use the same layout and codec.
func NewDataset(name string, factory lode.StoreFactory) (lode.Dataset, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(name),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, name)
	}
	return ds, nil
}
