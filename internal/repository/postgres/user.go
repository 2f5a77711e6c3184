package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
	"github.com/jackc/pgx/v5"
)

// userRow is a full users row, password hash included.
type userRow struct {
	Username  string  `db:"username"`
	Password  string  `db:"password"`
	FirstName string  `db:"first_name"`
	LastName  string  `db:"last_name"`
	Email     string  `db:"email"`
	PhotoURL  *string `db:"photo_url"`
	IsAdmin   bool    `db:"is_admin"`
}

func (u *userRow) public() *models.User {
	return &models.User{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		PhotoURL:  u.PhotoURL,
		IsAdmin:   u.IsAdmin,
	}
}

func userNotFound(username string) error {
	return apperr.NotFound("No user: %s", username)
}

func (r *Repo) Register(ctx context.Context, u models.NewUser) (*models.User, error) {
	hash, err := r.hasher.Hash(u.Password)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, `
		INSERT INTO users (username, password, first_name, last_name, email, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		u.Username, hash, u.FirstName, u.LastName, u.Email, u.PhotoURL)
	if err != nil {
		return nil, translate(err, nil)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[userRow])
	if err != nil {
		return nil, translate(err, nil)
	}
	r.logger.Info("user registered", "username", row.Username)
	return row.public(), nil
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords both yield InvalidCredentials.
func (r *Repo) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	rows, err := r.conn.Query(ctx, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[userRow])
	if errors.Is(err, pgx.ErrNoRows) {
		r.hasher.CompareMissing(password)
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !r.hasher.Compare(row.Password, password) {
		r.logger.Warn("failed login", "username", username)
		return nil, apperr.InvalidCredentials()
	}
	return row.public(), nil
}

func (r *Repo) GetUser(ctx context.Context, username string) (*models.User, error) {
	rows, err := r.conn.Query(ctx, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[userRow])
	if err != nil {
		return nil, translate(err, userNotFound(username))
	}
	return row.public(), nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := r.conn.Query(ctx, `SELECT username, first_name, last_name, email FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.UserSummary])
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// UpdateUser applies a partial update. A new password is hashed before it
// is stored; is_admin cannot be changed here.
func (r *Repo) UpdateUser(ctx context.Context, username string, fields sqlbuild.Fields) (*models.User, error) {
	fields = fields.Only(repository.UserUpdatable...)
	if v, ok := fields.Get("password"); ok {
		pw, isString := v.(string)
		if !isString || pw == "" {
			return nil, apperr.InvalidInput("password must be a non-empty string")
		}
		hash, err := r.hasher.Hash(pw)
		if err != nil {
			return nil, err
		}
		fields.Set("password", hash)
	}

	query, args, err := sqlbuild.PartialUpdate("users", fields, "username", username)
	if err != nil {
		return nil, apperr.InvalidInput("no updatable fields supplied")
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, userNotFound(username))
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[userRow])
	if err != nil {
		return nil, translate(err, userNotFound(username))
	}
	return row.public(), nil
}

func (r *Repo) DeleteUser(ctx context.Context, username string) (string, error) {
	var deleted string
	if err := r.conn.QueryRow(ctx, `DELETE FROM users WHERE username = $1 RETURNING username`, username).Scan(&deleted); err != nil {
		return "", translate(err, userNotFound(username))
	}
	r.logger.Info("user deleted", "username", deleted)
	return deleted, nil
}
