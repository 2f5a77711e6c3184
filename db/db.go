// Package db embeds the SQL migrations and seed data.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// SeedFiles holds demo data for local development; it is only applied by
// scripts/db_init with -seed.
//
//go:embed seed/*.sql
var SeedFiles embed.FS
