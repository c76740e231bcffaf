package kelpie

import (
	"fmt"

	"github.com/rnxpyke/kelpie/catalog"
	"github.com/rnxpyke/kelpie/codec"
	"github.com/rnxpyke/kelpie/schedule"
	"github.com/rnxpyke/kelpie/series"
)

// liveSeries is the buffered, unflushed window for a single series_key:
// the schedule it currently represents and the points accepted into it
// since the last eviction (or since it was reloaded from the catalog).
type liveSeries struct {
	schedule schedule.Schedule
	data     *series.RawSeries
}

// Engine is the single-writer, synchronous storage engine described by
// the package doc comment: it owns one mutable buffer per series with an
// open window, and a Catalog of compressed, schedule-aligned chunks for
// everything that has been evicted.
//
// An Engine is not safe for concurrent use. Callers needing multi-writer
// access must serialize externally.
type Engine struct {
	catalog  catalog.Catalog
	codec    codec.Codec
	schedule schedule.Config
	live     map[int64]*liveSeries
}

func newEngine(cat catalog.Catalog, cfg config) *Engine {
	return &Engine{
		catalog:  cat,
		codec:    codec.New(compressorFor(cfg.compression)),
		schedule: schedule.NewConfig(cfg.chunkSize),
		live:     make(map[int64]*liveSeries),
	}
}

// Insert validates and stores a single point for seriesKey.
//
// Validation failures (NaN values, negative times, time == math.MaxInt64)
// are dropped silently; Insert returns nil in that case. A non-nil error
// means evicting the previously open window or reloading a chunk the new
// window needs failed (a catalog driver error, or a codec compress or
// decompress error); both are fatal for this call, matching the engine's
// no-retry policy.
func (e *Engine) Insert(seriesKey int64, point series.DataPoint) error {
	if !acceptable(point) {
		return nil
	}

	cur, ok := e.live[seriesKey]
	if !ok || !cur.schedule.Contains(point.Time) {
		if ok {
			if err := e.evict(seriesKey, cur); err != nil {
				return err
			}
		}

		window := e.schedule.Init(point.Time)
		loaded, err := e.open(seriesKey, window)
		if err != nil {
			return err
		}

		e.live[seriesKey] = loaded
		cur = loaded
	}

	if !cur.schedule.Contains(point.Time) {
		// Unreachable: open() always returns a buffer whose schedule was
		// computed from point.Time itself.
		panic("kelpie: internal invariant violated, schedule does not contain insert time")
	}

	cur.data.Insert(point.Time, point.Value)

	return nil
}

// evict compresses cur's buffer and persists it to the catalog under its
// own schedule bounds, then drops it from the live map. A compression
// failure here is treated as an engine bug rather than a user error: the
// input gate already excludes the value patterns known to destabilize
// the column codecs.
func (e *Engine) evict(seriesKey int64, cur *liveSeries) error {
	chunk, err := e.codec.Compress(cur.data)
	if err != nil {
		return fmt.Errorf("kelpie: compress series %d window [%d,%d): %w", seriesKey, cur.schedule.Start, cur.schedule.End, err)
	}

	if err := e.catalog.Put(seriesKey, cur.schedule.Start, cur.schedule.End, chunk); err != nil {
		return err
	}

	delete(e.live, seriesKey)

	return nil
}

// open returns the live buffer for window, reloading it from the catalog
// if a chunk already exists there (reads-after-eviction-after-reinsert
// see both pre- and post-eviction points this way), or starting an empty
// one otherwise.
func (e *Engine) open(seriesKey int64, window schedule.Schedule) (*liveSeries, error) {
	_, chunk, found, err := e.catalog.Get(seriesKey, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if !found {
		return &liveSeries{schedule: window, data: series.New()}, nil
	}

	data, err := e.codec.Decompress(chunk)
	if err != nil {
		return nil, fmt.Errorf("kelpie: reload series %d window [%d,%d): %w", seriesKey, window.Start, window.End, err)
	}

	return &liveSeries{schedule: window, data: data}, nil
}

// Query returns every (time, value) pair accepted for seriesKey with
// start <= time < stop, in time order. An inverted or empty range
// (start >= stop) returns an empty series without touching the catalog.
func (e *Engine) Query(seriesKey int64, start int64, stop int64) (*series.RawSeries, error) {
	result := series.New()
	if start >= stop {
		return result, nil
	}

	cur := start
	for cur < stop {
		window := e.schedule.Init(cur)

		windowData, err := e.lookup(seriesKey, window)
		if err != nil {
			return nil, err
		}
		if windowData != nil {
			result.Merge(windowData)
		}

		cur = window.End
	}

	result.Trim(start, stop)

	return result, nil
}

// lookup consults the live buffer first, then the catalog, for the chunk
// exactly covering window. When the live buffer covers window it is
// returned and the catalog is not read: a buffer reloaded from a catalog
// row holds that row's points plus every later insert, so it supersedes
// the row.
func (e *Engine) lookup(seriesKey int64, window schedule.Schedule) (*series.RawSeries, error) {
	if cur, ok := e.live[seriesKey]; ok && cur.schedule == window {
		return cur.data, nil
	}

	_, chunk, found, err := e.catalog.Get(seriesKey, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	data, err := e.codec.Decompress(chunk)
	if err != nil {
		return nil, fmt.Errorf("kelpie: decode series %d window [%d,%d): %w", seriesKey, window.Start, window.End, err)
	}

	return data, nil
}

// Close releases the catalog's underlying resources (a database
// connection, an open file). Unflushed live buffers are not persisted;
// an explicit flush is outside this engine's scope.
func (e *Engine) Close() error {
	return e.catalog.Close()
}
