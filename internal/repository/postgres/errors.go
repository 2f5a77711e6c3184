package postgres

import (
	"errors"
	"regexp"

	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeNumericOutOfRange   = "22003"
)

// keyDetail matches the detail of key violations: Key (col)=(value) ...
var keyDetail = regexp.MustCompile(`Key \(([^)]+)\)=\((.*)\)`)

var checkMessages = map[string]string{
	"companies_num_employees_check": "num_employees must be greater than or equal to 0",
	"jobs_salary_check":             "salary must be greater than or equal to 0",
	"jobs_equity_check":             "equity must be between 0 and 1",
}

// translate maps storage errors to domain errors. notFound is returned for
// pgx.ErrNoRows; errors it does not recognise are returned unchanged.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		col, val := parseKey(pgErr.Detail)
		if col == "" {
			return apperr.Conflict("", "Duplicate value")
		}
		return apperr.Conflict(col, "Duplicate %s: %s", col, val)
	case codeForeignKeyViolation:
		col, val := parseKey(pgErr.Detail)
		if col == "company_handle" {
			return apperr.InvalidInput("No company: %s", val)
		}
		return apperr.InvalidInput("Invalid reference: %s", pgErr.ConstraintName)
	case codeNotNullViolation:
		return apperr.InvalidInput("%s is required", pgErr.ColumnName)
	case codeCheckViolation:
		if msg, ok := checkMessages[pgErr.ConstraintName]; ok {
			return apperr.InvalidInput("%s", msg)
		}
		return apperr.InvalidInput("value out of range")
	case codeInvalidText, codeNumericOutOfRange:
		return apperr.InvalidInput("%s", pgErr.Message)
	}
	return err
}

func parseKey(detail string) (string, string) {
	m := keyDetail.FindStringSubmatch(detail)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}
