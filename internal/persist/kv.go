package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS objects (
	name     TEXT PRIMARY KEY,
	data     TEXT NOT NULL,
	saved_at TEXT NOT NULL
)`

// kvCodec keeps many values in one SQLite file, JSON-encoded and keyed by name.
type kvCodec struct{}

func (kvCodec) write(path, name string, v any, _ writeOptions) error {
	if name == "" {
		return fmt.Errorf("%w: a store entry needs a key", ErrNoName)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(kvSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	_, err = db.Exec(`INSERT INTO objects (name, data, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		name, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (c kvCodec) read(path, name string, ptr any) error {
	data, err := c.raw(path, name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, ptr)
}

func (c kvCodec) readAny(path, name string) (any, error) {
	if name == "" {
		return readAll(path)
	}
	data, err := c.raw(path, name)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// readAll decodes every entry of a store into a map keyed by name.
func readAll(path string) (map[string]any, error) {
	db, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name, data FROM objects`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := make(map[string]any)
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("key %q: %w", name, err)
		}
		all[name] = v
	}
	return all, rows.Err()
}

func (kvCodec) raw(path, name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: a store entry needs a key", ErrNoName)
	}
	db, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var data string
	err = db.QueryRow(`SELECT data FROM objects WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("key %q: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// openExisting opens a store without creating it.
func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// Entry is one value held in a .db store.
type Entry struct {
	Name    string
	SavedAt time.Time
	Size    int
}

// Entries lists the values in a .db store ordered by name.
func Entries(path string) ([]Entry, error) {
	db, err := openExisting(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name, saved_at, length(data) FROM objects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var savedAt string
		if err := rows.Scan(&e.Name, &savedAt, &e.Size); err != nil {
			return nil, err
		}
		e.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Keys lists the names held in a .db store.
func Keys(path string) ([]string, error) {
	entries, err := Entries(path)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Name
	}
	return keys, nil
}
