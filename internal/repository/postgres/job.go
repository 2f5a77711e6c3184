package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
	"github.com/jackc/pgx/v5"
)

var jobConditions = sqlbuild.ConditionMap{
	"search":     {Column: "title", Op: "ILIKE"},
	"min_salary": {Column: "salary", Op: ">="},
	"max_salary": {Column: "salary", Op: "<="},
	"min_equity": {Column: "equity", Op: ">="},
}

func jobNotFound(id int64) error {
	return apperr.NotFound("No job: %d", id)
}

// jobIDInRange reports whether id fits the SERIAL column. Anything outside
// cannot name a row and pgx would refuse to encode it.
func jobIDInRange(id int64) bool {
	return id > 0 && id <= math.MaxInt32
}

func (r *Repo) GetJob(ctx context.Context, id int64) (*models.JobDetail, error) {
	if !jobIDInRange(id) {
		return nil, jobNotFound(id)
	}
	var j models.JobDetail
	c := &j.Company
	err := r.conn.QueryRow(ctx, `
		SELECT j.id, j.title, j.salary, j.equity, j.date_posted,
		       c.handle, c.name, c.num_employees, c.description, c.logo_url
		FROM jobs j
		JOIN companies c ON c.handle = j.company_handle
		WHERE j.id = $1`, id).Scan(
		&j.ID, &j.Title, &j.Salary, &j.Equity, &j.DatePosted,
		&c.Handle, &c.Name, &c.NumEmployees, &c.Description, &c.LogoURL)
	if err != nil {
		return nil, translate(err, jobNotFound(id))
	}
	return &j, nil
}

func (r *Repo) ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobSummary, error) {
	if err := repository.CheckJobBounds(f); err != nil {
		return nil, err
	}

	var params sqlbuild.Params
	if f.Search != nil {
		params = params.Add("search", *f.Search)
	}
	if f.MinSalary != nil {
		params = params.Add("min_salary", *f.MinSalary)
	}
	if f.MaxSalary != nil {
		params = params.Add("max_salary", *f.MaxSalary)
	}
	if f.MinEquity != nil {
		params = params.Add("min_equity", *f.MinEquity)
	}
	where, args := sqlbuild.Where(params, jobConditions)

	rows, err := r.conn.Query(ctx, `SELECT id, title, company_handle FROM jobs `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", translate(err, nil))
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.JobSummary])
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

func (r *Repo) CreateJob(ctx context.Context, j *models.Job) (*models.Job, error) {
	if j == nil {
		return nil, fmt.Errorf("job is nil")
	}
	if j.Salary != nil {
		if err := repository.CheckSalary(*j.Salary); err != nil {
			return nil, err
		}
	}
	if j.Equity != nil {
		if err := repository.CheckEquity(*j.Equity); err != nil {
			return nil, err
		}
	}

	rows, err := r.conn.Query(ctx, `
		INSERT INTO jobs (title, salary, equity, company_handle)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		j.Title, j.Salary, j.Equity, j.CompanyHandle)
	if err != nil {
		return nil, translate(err, nil)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Job])
	if err != nil {
		return nil, translate(err, nil)
	}
	r.logger.Info("job created", "id", out.ID, "company", out.CompanyHandle)
	return out, nil
}

func (r *Repo) UpdateJob(ctx context.Context, id int64, fields sqlbuild.Fields) (*models.Job, error) {
	if !jobIDInRange(id) {
		return nil, jobNotFound(id)
	}
	fields = fields.Only(repository.JobUpdatable...)
	if err := repository.CheckJobFields(fields); err != nil {
		return nil, err
	}

	query, args, err := sqlbuild.PartialUpdate("jobs", fields, "id", id)
	if err != nil {
		return nil, apperr.InvalidInput("no updatable fields supplied")
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, jobNotFound(id))
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Job])
	if err != nil {
		return nil, translate(err, jobNotFound(id))
	}
	return out, nil
}

func (r *Repo) DeleteJob(ctx context.Context, id int64) (int64, error) {
	if !jobIDInRange(id) {
		return 0, jobNotFound(id)
	}
	var deleted int64
	if err := r.conn.QueryRow(ctx, `DELETE FROM jobs WHERE id = $1 RETURNING id`, id).Scan(&deleted); err != nil {
		return 0, translate(err, jobNotFound(id))
	}
	return deleted, nil
}
