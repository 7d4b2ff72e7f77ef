package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema steps; each file registers itself in init.
var Migrations = migrate.NewMigrations()
