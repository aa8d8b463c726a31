// Package versioned persists a single typed value together with its schema
// version and migrates values written under older schemas on read.
//
// # Files
//
// A store at path P owns two files: P holds the value and P+".version" holds
// the schema version as an integer. Both are written on every store and
// removed together on clear.
//
// # Migration
//
// A read first decodes P as the current type. Only when P holds structured
// data of a different shape is the MigrationFunc called, with the version
// from the version file (BaselineVersion when it is missing) and the stored
// data as a raw tree. The migrated value is returned but not written back;
// call Set to make it durable.
//
// # Concurrency
//
// Codec performs no locking. Open wraps it in a kstore.Store which
// serializes access within the process.
package versioned

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/maruel/vstore/internal/codec"
	"github.com/maruel/vstore/internal/fsio"
)

// Codec reads and writes the data and version files of one store.
type Codec[T any] struct {
	dataPath    string
	versionPath string
	version     int
	codec       codec.Codec
	fs          fsio.FS
	migrate     MigrationFunc[T]
}

// NewCodec creates the encode/decode pair for cfg.
func NewCodec[T any](cfg Config[T]) (*Codec[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Codec[T]{
		dataPath:    cfg.Path,
		versionPath: cfg.Path + VersionSuffix,
		version:     cfg.Version,
		codec:       cfg.Codec,
		fs:          cfg.FS,
		migrate:     cfg.Migration,
	}, nil
}

// DataPath returns the path of the data file.
func (c *Codec[T]) DataPath() string { return c.dataPath }

// VersionPath returns the path of the version file.
func (c *Codec[T]) VersionPath() string { return c.versionPath }

// Encode writes v and the current version. nil removes both files.
//
// The version file is written before the data file, and removed before it.
// Both are serialized before anything is written so an unencodable value
// leaves the files untouched.
func (c *Codec[T]) Encode(v *T) error {
	if v == nil {
		if err := c.fs.Remove(c.versionPath); err != nil {
			return err
		}
		return c.fs.Remove(c.dataPath)
	}
	ver, err := c.codec.Marshal(c.version)
	if err != nil {
		return fmt.Errorf("failed to marshal version: %w", err)
	}
	data, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := c.fs.WriteFile(c.versionPath, ver); err != nil {
		return err
	}
	return c.fs.WriteFile(c.dataPath, data)
}

// Decode reads the value. It returns nil when the data file does not exist.
//
// Storage errors and corrupt data are returned as is. Data of another shape
// goes through the migration function, whose error is returned unchanged.
func (c *Codec[T]) Decode() (*T, error) {
	data, err := c.fs.ReadFile(c.dataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.dataPath, err)
	}
	out := codec.Decode[T](c.codec, data)
	switch out.Kind {
	case codec.Decoded:
		return &out.Value, nil
	case codec.Mismatch:
		return c.runMigration(out.Raw)
	default:
		return nil, fmt.Errorf("failed to decode %s: %w", c.dataPath, out.Err)
	}
}
