// Package pgtest gives tests an isolated, migrated Postgres schema.
//
// The database comes from JOBLY_TEST_DATABASE_URL when set. Otherwise Main
// starts a throwaway postgres:15 container with testcontainers. When neither
// is available Open skips the calling test.
package pgtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	dbfs "github.com/garnizeh/jobly/db"
	"github.com/garnizeh/jobly/internal/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// EnvURL names the variable holding an externally managed test database.
const EnvURL = "JOBLY_TEST_DATABASE_URL"

var (
	databaseURL string
	skipReason  string
)

// Main is meant to be called from a package TestMain. It resolves the test
// database, runs the tests and tears the container down afterwards.
func Main(m *testing.M) int {
	if url := os.Getenv(EnvURL); url != "" {
		databaseURL = url
		return m.Run()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	container, url, err := startContainer(ctx)
	cancel()
	if err != nil {
		skipReason = fmt.Sprintf("no test database: set %s or make docker available (%v)", EnvURL, err)
		return m.Run()
	}
	databaseURL = url

	code := m.Run()

	termCtx, termCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer termCancel()
	if err := container.Terminate(termCtx); err != nil {
		fmt.Fprintf(os.Stderr, "pgtest: terminate container: %v\n", err)
	}
	return code
}

func startContainer(ctx context.Context) (c testcontainers.Container, url string, err error) {
	// the docker client panics on some hosts without a daemon
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	const (
		user     = "jobly"
		password = "jobly"
		name     = "jobly_test"
	)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       name,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	}
	c, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, "", err
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, "", err
	}

	url = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port.Port(), name)
	return c, url, nil
}

// Open returns a *db.DB bound to a fresh schema with all migrations
// applied. The schema is dropped when the test finishes.
func Open(t testing.TB) *db.DB {
	t.Helper()
	if databaseURL == "" {
		if skipReason == "" {
			skipReason = "pgtest.Main was not called from TestMain"
		}
		t.Skip(skipReason)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, databaseURL)
	require.NoError(t, err, "connect")
	defer admin.Close(ctx)

	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err, "create schema")

	cfg, err := pgxpool.ParseConfig(databaseURL)
	require.NoError(t, err, "parse url")
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	cfg.MaxConns = 4

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	d, err := db.NewWithConfig(ctx, cfg, logger)
	require.NoError(t, err, "open pool")

	t.Cleanup(func() {
		d.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		conn, err := pgx.Connect(ctx, databaseURL)
		if err != nil {
			t.Logf("drop schema %s: %v", schema, err)
			return
		}
		defer conn.Close(ctx)
		if _, err := conn.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	require.NoError(t, db.Migrate(ctx, d, dbfs.Migrations, nil), "migrate")
	return d
}
