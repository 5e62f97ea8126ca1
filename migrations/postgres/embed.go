// Package postgres embeds the SQL migration files.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
