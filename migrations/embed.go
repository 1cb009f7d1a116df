// Package migrations ships the SQLite schema for users and message logs.
package migrations

import "embed"

// FS holds the versioned *.up.sql / *.down.sql files consumed by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
