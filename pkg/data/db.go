package data

import (
	"database/sql"
	"embed"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	schemaVersion = 1
	dirMode       = 0700
	timeFormat    = "2006-01-02T15:04:05.000000Z"
	dsnPragmas    = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	insertSchemaVersionSQL = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")

	// ErrNotFound is returned when a requested analysis does not exist.
	ErrNotFound = errors.New("not found")
)

// Init creates the database file and schema when missing. It is safe to call repeatedly.
func Init(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	if dir := filepath.Dir(dbFilePath); dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errors.Wrapf(err, "failed to create database dir: %s", dir)
		}
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return errors.Wrapf(err, "error opening database: %s", dbFilePath)
	}
	defer db.Close()

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.Exec(string(b)); err != nil {
		return errors.Wrapf(err, "failed to create database schema in: %s", dbFilePath)
	}

	now := time.Now().UTC().Format(timeFormat)
	if _, err := db.Exec(insertSchemaVersionSQL, schemaVersion, now); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	slog.Debug("db schema ready", "path", dbFilePath, "version", schemaVersion)
	return nil
}

// GetDB opens the database at path.
func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}
	return conn, nil
}
