package kelpie

import (
	"github.com/rnxpyke/kelpie/format"
	"github.com/rnxpyke/kelpie/internal/options"
)

// config holds the process-wide settings fixed at engine construction.
type config struct {
	chunkSize   int64
	compression format.CompressionType
}

func defaultConfig() config {
	return config{
		chunkSize:   0, // 0 resolves to schedule.DefaultChunkSize
		compression: format.CompressionZstd,
	}
}

// Option is a functional option for configuring a new Engine.
type Option = options.Option[*config]

// WithChunkSize sets the width, in the same units as insert/query times
// (typically milliseconds), of every schedule window. A non-positive
// value is ignored and the default of one hour falls back in effect.
// chunkSize is fixed for the engine's lifetime; changing it after
// construction is out of scope.
func WithChunkSize(chunkSize int64) Option {
	return options.NoError(func(c *config) {
		c.chunkSize = chunkSize
	})
}

// WithCompression sets the byte-level compressor applied to each encoded
// chunk column on top of the fixed time/value column codecs. The default
// is format.CompressionZstd.
func WithCompression(compression format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.compression = compression
	})
}
