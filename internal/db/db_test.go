package db_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/garnizeh/jobly/internal/db"
	"github.com/garnizeh/jobly/internal/pgtest"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Exit(pgtest.Main(m))
}

func TestExec_QueryRow(t *testing.T) {
	d := pgtest.Open(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `CREATE TABLE items (id SERIAL PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	var id int64
	err = d.QueryRow(ctx, `INSERT INTO items (name) VALUES ($1) RETURNING id`, "foo").Scan(&id)
	require.NoError(t, err)
	require.NotZero(t, id)

	var name string
	require.NoError(t, d.QueryRow(ctx, `SELECT name FROM items WHERE id = $1`, id).Scan(&name))
	require.Equal(t, "foo", name)
	require.NoError(t, d.Ping(ctx))
	require.NotNil(t, d.Pool())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	d := pgtest.Open(t)
	ctx := context.Background()

	_, err := d.Exec(ctx, `CREATE TABLE items (name TEXT)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = d.WithTx(ctx, func(q db.Querier) error {
		if _, err := q.Exec(ctx, `INSERT INTO items (name) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, d.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&n))
	require.Zero(t, n, "rolled back insert must not be visible")

	err = d.WithTx(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `INSERT INTO items (name) VALUES ('b')`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, d.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestNew_BadDSN(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := db.New(ctx, "::not a url::", nil); err == nil {
		t.Fatalf("expected error for bad DSN, got nil")
	}
}
