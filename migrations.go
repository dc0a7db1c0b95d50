// Package lending holds assets shared by the binaries of the loan pipeline.
package lending

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations contains the goose SQL migrations of the PostgreSQL backend,
// with the SQL files at its root.
var Migrations = mustSub(embedded, "migrations") //nolint: gochecknoglobals

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}

	return sub
}
