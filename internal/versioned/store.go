package versioned

import (
	"github.com/maruel/vstore/internal/kstore"
)

// Open returns a store persisting a T at cfg.Path with the versioned codec.
// Nothing is read until the first Get.
func Open[T any](cfg Config[T]) (*kstore.Store[T], error) {
	c, err := NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	return kstore.New(kstore.Config[T]{
		Default:     cfg.Default,
		EnableCache: !cfg.DisableCache,
		Encoder:     c.Encode,
		Decoder:     c.Decode,
		Logger:      cfg.Logger,
	})
}
