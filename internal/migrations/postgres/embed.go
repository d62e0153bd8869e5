// Package postgres embeds goose migrations for the PostgreSQL record store.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS
