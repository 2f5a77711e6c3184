package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/garnizeh/jobly/internal/db"
	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
	"github.com/jackc/pgx/v5"
)

var companyConditions = sqlbuild.ConditionMap{
	"search":        {Column: "name", Op: "ILIKE"},
	"min_employees": {Column: "num_employees", Op: ">="},
	"max_employees": {Column: "num_employees", Op: "<="},
}

func companyNotFound(handle string) error {
	return apperr.NotFound("No company: %s", handle)
}

func (r *Repo) GetCompany(ctx context.Context, handle string) (*models.CompanyDetail, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT c.handle, c.name, c.num_employees, c.description, c.logo_url,
		       j.id, j.title, j.salary, j.equity, j.date_posted
		FROM companies c
		LEFT JOIN jobs j ON j.company_handle = c.handle
		WHERE c.handle = $1
		ORDER BY j.id`, handle)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	defer rows.Close()

	var d *models.CompanyDetail
	for rows.Next() {
		var (
			c      models.Company
			id     *int64
			title  *string
			salary *float64
			equity *float64
			posted *time.Time
		)
		if err := rows.Scan(&c.Handle, &c.Name, &c.NumEmployees, &c.Description, &c.LogoURL,
			&id, &title, &salary, &equity, &posted); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		if d == nil {
			d = &models.CompanyDetail{Company: c, Jobs: []models.CompanyJob{}}
		}
		if id != nil {
			d.Jobs = append(d.Jobs, models.CompanyJob{
				ID: *id, Title: deref(title), Salary: salary, Equity: equity, DatePosted: derefTime(posted),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if d == nil {
		return nil, companyNotFound(handle)
	}
	return d, nil
}

func (r *Repo) ListCompanies(ctx context.Context, f models.CompanyFilter) ([]models.CompanySummary, error) {
	if err := repository.CheckCompanyBounds(f); err != nil {
		return nil, err
	}

	var params sqlbuild.Params
	if f.Search != nil {
		params = params.Add("search", *f.Search)
	}
	if f.MinEmployees != nil {
		params = params.Add("min_employees", *f.MinEmployees)
	}
	if f.MaxEmployees != nil {
		params = params.Add("max_employees", *f.MaxEmployees)
	}
	where, args := sqlbuild.Where(params, companyConditions)

	rows, err := r.conn.Query(ctx, `SELECT handle, name FROM companies `+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", translate(err, nil))
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.CompanySummary])
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

func (r *Repo) CreateCompany(ctx context.Context, c *models.Company) (*models.Company, error) {
	if c == nil {
		return nil, fmt.Errorf("company is nil")
	}
	if c.NumEmployees != nil {
		if err := repository.CheckEmployees(float64(*c.NumEmployees)); err != nil {
			return nil, err
		}
	}

	rows, err := r.conn.Query(ctx, `
		INSERT INTO companies (handle, name, num_employees, description, logo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		c.Handle, c.Name, c.NumEmployees, c.Description, c.LogoURL)
	if err != nil {
		return nil, translate(err, nil)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Company])
	if err != nil {
		return nil, translate(err, nil)
	}
	r.logger.Info("company created", "handle", out.Handle)
	return out, nil
}

func (r *Repo) UpdateCompany(ctx context.Context, handle string, fields sqlbuild.Fields) (*models.Company, error) {
	fields = fields.Only(repository.CompanyUpdatable...)
	if v, ok := fields.Get("num_employees"); ok && v != nil {
		n, isNum := repository.NumberValue(v)
		if !isNum || n != math.Trunc(n) {
			return nil, apperr.InvalidInput("num_employees must be an integer")
		}
		if err := repository.CheckEmployees(n); err != nil {
			return nil, err
		}
		fields.Set("num_employees", int(n))
	}

	query, args, err := sqlbuild.PartialUpdate("companies", fields, "handle", handle)
	if err != nil {
		return nil, apperr.InvalidInput("no updatable fields supplied")
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, companyNotFound(handle))
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Company])
	if err != nil {
		return nil, translate(err, companyNotFound(handle))
	}
	return out, nil
}

// DeleteCompany removes the company and its jobs in one transaction.
func (r *Repo) DeleteCompany(ctx context.Context, handle string) (string, error) {
	var deleted string
	err := r.conn.WithTx(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM jobs WHERE company_handle = $1`, handle)
		if err != nil {
			return fmt.Errorf("delete company jobs: %w", err)
		}
		if err := q.QueryRow(ctx, `DELETE FROM companies WHERE handle = $1 RETURNING handle`, handle).Scan(&deleted); err != nil {
			return translate(err, companyNotFound(handle))
		}
		r.logger.Info("company deleted", "handle", handle, "jobs", tag.RowsAffected())
		return nil
	})
	if err != nil {
		return "", err
	}
	return deleted, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
