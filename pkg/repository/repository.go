package repository

import (
	"context"
	"math"

	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Implementations report failures as *apperr.Error values (NotFound,
// Conflict, InvalidInput, InvalidCredentials); anything else is an
// infrastructure error.

type CompanyRepo interface {
	GetCompany(ctx context.Context, handle string) (*models.CompanyDetail, error)
	ListCompanies(ctx context.Context, f models.CompanyFilter) ([]models.CompanySummary, error)
	CreateCompany(ctx context.Context, c *models.Company) (*models.Company, error)
	UpdateCompany(ctx context.Context, handle string, fields sqlbuild.Fields) (*models.Company, error)
	DeleteCompany(ctx context.Context, handle string) (string, error)
}

type JobRepo interface {
	GetJob(ctx context.Context, id int64) (*models.JobDetail, error)
	ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobSummary, error)
	CreateJob(ctx context.Context, j *models.Job) (*models.Job, error)
	UpdateJob(ctx context.Context, id int64, fields sqlbuild.Fields) (*models.Job, error)
	DeleteJob(ctx context.Context, id int64) (int64, error)
}

type UserRepo interface {
	Register(ctx context.Context, u models.NewUser) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	UpdateUser(ctx context.Context, username string, fields sqlbuild.Fields) (*models.User, error)
	DeleteUser(ctx context.Context, username string) (string, error)
}

// Updatable columns per entity. Repositories apply these allow-lists before
// building an UPDATE, so control fields and is_admin never reach SQL.
var (
	CompanyUpdatable = []string{"handle", "name", "num_employees", "description", "logo_url"}
	JobUpdatable     = []string{"title", "salary", "equity"}
	UserUpdatable    = []string{"username", "password", "first_name", "last_name", "email", "photo_url"}
)

// Range checks shared by the job repository implementations.

func CheckSalary(v float64) error {
	if v < 0 {
		return errSalary
	}
	return nil
}

func CheckEquity(v float64) error {
	if v < 0 || v > 1 {
		return errEquity
	}
	return nil
}

// CheckEmployees keeps num_employees inside the column's integer range.
func CheckEmployees(n float64) error {
	if n < 0 || n > math.MaxInt32 {
		return errEmployees
	}
	return nil
}

// CheckCompanyBounds rejects a filter whose lower bound exceeds its upper,
// or whose bounds do not fit the column.
func CheckCompanyBounds(f models.CompanyFilter) error {
	for _, b := range []*int{f.MinEmployees, f.MaxEmployees} {
		if b != nil && (*b < math.MinInt32 || *b > math.MaxInt32) {
			return errEmployeeRange
		}
	}
	if f.MinEmployees != nil && f.MaxEmployees != nil && *f.MinEmployees > *f.MaxEmployees {
		return errEmployeeBounds
	}
	return nil
}

func CheckJobBounds(f models.JobFilter) error {
	if f.MinSalary != nil && f.MaxSalary != nil && *f.MinSalary > *f.MaxSalary {
		return errSalaryBounds
	}
	return nil
}
