package db_test

import (
	"context"
	"testing"
	"testing/fstest"

	dbfs "github.com/garnizeh/jobly/db"
	"github.com/garnizeh/jobly/internal/db"
	"github.com/garnizeh/jobly/internal/pgtest"
	"github.com/stretchr/testify/require"
)

// pgtest.Open already ran the embedded migrations once; running them again
// together with the seed must be a no-op for the schema.
func TestMigrate_Idempotent(t *testing.T) {
	d := pgtest.Open(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles))
	require.NoError(t, db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles))

	var count int
	require.NoError(t, d.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, 1, count)

	for _, table := range []string{"companies", "jobs", "users"} {
		var exists bool
		err := d.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "table %s", table)
	}

	// seeds are applied on every call and must not duplicate rows
	var jobs int
	require.NoError(t, d.QueryRow(ctx, `SELECT count(*) FROM jobs`).Scan(&jobs))
	require.Equal(t, 4, jobs)
}

func TestMigrate_FailedMigrationIsNotRecorded(t *testing.T) {
	d := pgtest.Open(t)
	ctx := context.Background()

	bad := fstest.MapFS{
		"migrations/0002_broken.sql": {Data: []byte(`CREATE TABLE ok_table (id INT); CREATE TABLE broken (`)},
	}
	require.Error(t, db.Migrate(ctx, d, bad, nil))

	var applied bool
	require.NoError(t, d.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = '0002_broken')`).Scan(&applied))
	require.False(t, applied)

	var exists bool
	require.NoError(t, d.QueryRow(ctx, `SELECT to_regclass('ok_table') IS NOT NULL`).Scan(&exists))
	require.False(t, exists, "partial migration must roll back")
}
