// Package migrations embeds the goose SQL migrations for the session
// core's PostgreSQL stores.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
