package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver
)

// SQLiteCatalog is a Catalog backed by a single SQLite table:
//
//	chunks(series INTEGER, start INTEGER, stop INTEGER, chunk BLOB)
//
// It is the reference catalog implementation: NewMemory opens a
// private in-memory database (":memory:"), NewPath opens a file-resident
// one. Both run the same migration and carry the same lookup index.
type SQLiteCatalog struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS chunks (series INTEGER, start INTEGER, stop INTEGER, chunk BLOB)`

const indexSchema = `CREATE INDEX IF NOT EXISTS idx_chunks_series_start ON chunks(series, start)`

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	if _, err := db.Exec(indexSchema); err != nil {
		return err
	}

	return nil
}

func open(dsn string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// The chunk table is never written from more than one goroutine (the
	// engine is single-writer), but SQLite itself serializes writers
	// across connections; cap the pool at one connection to avoid
	// "database is locked" churn from the driver opening more.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteCatalog{db: db}, nil
}

// NewMemory opens a private in-memory SQLite-backed catalog. The data
// does not survive process exit.
func NewMemory() (*SQLiteCatalog, error) {
	return open(":memory:")
}

// NewPath opens a file-resident SQLite-backed catalog at path, creating
// the database and its schema if it does not already exist.
func NewPath(path string) (*SQLiteCatalog, error) {
	return open(fmt.Sprintf("file:%s", path))
}

var _ Catalog = (*SQLiteCatalog)(nil)

// Put appends a new row for (series, start, stop).
func (c *SQLiteCatalog) Put(series int64, start int64, stop int64, chunk []byte) error {
	_, err := c.db.Exec(`INSERT INTO chunks (series, start, stop, chunk) VALUES (?, ?, ?, ?)`, series, start, stop, chunk)
	if err != nil {
		return driverSetErr(err)
	}

	return nil
}

// Get returns the most recent (greatest start) row satisfying
// series = ? AND start <= ? AND stop >= ?.
func (c *SQLiteCatalog) Get(series int64, start int64, stop int64) (ChunkMeta, []byte, bool, error) {
	row := c.db.QueryRow(
		`SELECT start, stop, chunk FROM chunks WHERE series = ? AND start <= ? AND stop >= ? ORDER BY start DESC LIMIT 1`,
		series, start, stop,
	)

	var meta ChunkMeta
	var chunk []byte
	meta.SeriesKey = series
	if err := row.Scan(&meta.Start, &meta.Stop, &chunk); err != nil {
		if err == sql.ErrNoRows {
			return ChunkMeta{}, nil, false, nil
		}

		return ChunkMeta{}, nil, false, driverGetErr(err)
	}

	return meta, chunk, true, nil
}

// Close releases the underlying database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
