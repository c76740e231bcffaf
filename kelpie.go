// Package kelpie is an embedded time-series storage engine for numeric
// measurements.
//
// Each measurement is a (time, value) pair: time is a 64-bit signed
// integer key (typically milliseconds since the Unix epoch) and value is
// a 64-bit IEEE-754 float. Measurements are grouped into independently
// keyed series, themselves identified by a 64-bit signed integer.
//
// # Core design
//
// Every series is bound to a fixed-size, schedule-aligned time window.
// Inserts land in an in-memory mutable buffer for the series' current
// window; crossing into a new window evicts the old buffer into a
// compressed, immutable chunk held by a catalog. Range queries stitch
// results from the live buffer and the chunk catalog across the queried
// range.
//
// # Basic usage
//
//	engine, err := kelpie.NewMemory()
//	if err != nil {
//	    // handle error
//	}
//	defer engine.Close()
//
//	err = engine.Insert(0, series.DataPoint{Time: 3_600_000, Value: 1.5})
//	result, err := engine.Query(0, 0, 10_000_000)
//
// # Package structure
//
// This package provides the constructors and the Engine type that fronts
// the sub-packages: schedule (window alignment), series (the raw ordered
// map), codec (the chunk byte format), and catalog (the persisted chunk
// store). Advanced callers can use those packages directly, e.g. to
// supply a custom catalog.Catalog implementation.
package kelpie

import (
	"github.com/rnxpyke/kelpie/catalog"
	"github.com/rnxpyke/kelpie/compress"
	"github.com/rnxpyke/kelpie/format"
	"github.com/rnxpyke/kelpie/internal/options"
)

// NewMemory creates an Engine backed by a private in-memory catalog. Data
// does not survive process exit.
func NewMemory(opts ...Option) (*Engine, error) {
	cat, err := catalog.NewMemory()
	if err != nil {
		return nil, err
	}

	return build(cat, opts)
}

// NewPath creates an Engine backed by a file-resident catalog at path,
// creating it (and its schema) if it does not already exist.
func NewPath(path string, opts ...Option) (*Engine, error) {
	cat, err := catalog.NewPath(path)
	if err != nil {
		return nil, err
	}

	return build(cat, opts)
}

// NewWithCatalog creates an Engine over a caller-supplied catalog.Catalog,
// for callers that need a backing store other than the built-in
// SQLite-based one.
func NewWithCatalog(cat catalog.Catalog, opts ...Option) (*Engine, error) {
	return build(cat, opts)
}

func build(cat catalog.Catalog, opts []Option) (*Engine, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return newEngine(cat, cfg), nil
}

func compressorFor(t format.CompressionType) compress.Codec {
	c, err := compress.GetCodec(t)
	if err != nil {
		return compress.NewNoOpCompressor()
	}

	return c
}
