package versioned

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/maruel/vstore/internal/codec"
)

// runMigration hands raw and the stored version to the migration function.
func (c *Codec[T]) runMigration(raw any) (*T, error) {
	prev, err := c.storedVersion()
	if err != nil {
		return nil, err
	}
	return c.migrate(prev, raw)
}

// storedVersion reads the version file, or returns BaselineVersion when it
// does not exist.
func (c *Codec[T]) storedVersion() (int, error) {
	ok, err := c.fs.Exists(c.versionPath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", c.versionPath, err)
	}
	if !ok {
		return BaselineVersion, nil
	}
	data, err := c.fs.ReadFile(c.versionPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Removed since the check.
			return BaselineVersion, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", c.versionPath, err)
	}
	out := codec.Decode[int](c.codec, data)
	switch {
	case out.Kind == codec.Fatal:
		return 0, fmt.Errorf("failed to decode %s: %w", c.versionPath, out.Err)
	case out.Kind == codec.Mismatch || out.Value < 0:
		return 0, fmt.Errorf("failed to decode %s: %w: version must be a non-negative integer", c.versionPath, codec.ErrCorrupt)
	}
	return out.Value, nil
}
