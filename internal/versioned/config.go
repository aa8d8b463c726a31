package versioned

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/maruel/vstore/internal/codec"
	"github.com/maruel/vstore/internal/fsio"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid store config")

// VersionSuffix is appended to the data path to name the version file.
const VersionSuffix = ".version"

// BaselineVersion is the previous version reported to the migration function
// when no version file exists, i.e. for data written before versioning.
const BaselineVersion = 0

// MigrationFunc converts a value stored under an older schema into the current
// one. version is the schema version the value was written with. raw is the
// stored value decoded as a schema-agnostic tree.
//
// Returning nil means the value is gone and the store reads as empty.
// Returning an error fails the read with that error.
type MigrationFunc[T any] func(version int, raw any) (*T, error)

// Config describes a versioned store. It is not modified after Open.
type Config[T any] struct {
	// Path is the data file. The version file is Path+VersionSuffix.
	Path string
	// Version is the schema version written alongside every value.
	Version int
	// Default is returned when no value is persisted.
	Default *T
	// DisableCache makes every Get read the files.
	DisableCache bool
	// Codec defaults to codec.Default(): JSON, ignoring unknown fields and
	// encoding zero values.
	Codec codec.Codec
	// Migration defaults to returning Default.
	Migration MigrationFunc[T]
	// FS defaults to fsio.OS{}.
	FS fsio.FS
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Validate checks that the configuration is usable.
func (c *Config[T]) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	if c.Version < 0 {
		return fmt.Errorf("%w: version must be non-negative, got %d", ErrInvalidConfig, c.Version)
	}
	return nil
}

// withDefaults returns a copy of c with unset collaborators filled in.
func (c Config[T]) withDefaults() Config[T] {
	if c.Codec == nil {
		c.Codec = codec.Default()
	}
	if c.FS == nil {
		c.FS = fsio.OS{}
	}
	if c.Migration == nil {
		def := c.Default
		c.Migration = func(int, any) (*T, error) {
			if def == nil {
				return nil, nil
			}
			v := *def
			return &v, nil
		}
	}
	return c
}
