package postgres

import (
	"io"
	"log/slog"

	"github.com/garnizeh/jobly/internal/auth"
	"github.com/garnizeh/jobly/internal/db"
	"github.com/garnizeh/jobly/pkg/repository"
)

// Repo implements repository interfaces using the internal DB wrapper.
type Repo struct {
	conn   *db.DB
	logger *slog.Logger
	hasher *auth.Hasher
}

// Ensure Repo implements the public interfaces.
var (
	_ repository.CompanyRepo = (*Repo)(nil)
	_ repository.JobRepo     = (*Repo)(nil)
	_ repository.UserRepo    = (*Repo)(nil)
)

func New(conn *db.DB, hasher *auth.Hasher, logger *slog.Logger) *Repo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Repo{conn: conn, logger: logger, hasher: hasher}
}
