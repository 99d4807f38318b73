// Package migrations embeds the goose schema migrations for every supported
// database dialect.
package migrations

import (
	"embed"

	"github.com/dmitrijs2005/faceguard/internal/dbx"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// Dir returns the directory inside Migrations holding the scripts for d.
func Dir(d dbx.Dialect) string {
	if d == dbx.DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}
