// Package migrations holds the versioned schema files for each SQL backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// SQLite returns the migration tree for the SQLite backend.
func SQLite() fs.FS {
	sub, err := fs.Sub(FS, "sqlite")
	if err != nil {
		panic(err)
	}
	return sub
}

// Postgres returns the migration tree for the PostgreSQL backend.
func Postgres() fs.FS {
	sub, err := fs.Sub(FS, "postgres")
	if err != nil {
		panic(err)
	}
	return sub
}
