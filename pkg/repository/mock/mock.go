// Package mock provides in-memory repositories for handler tests. They
// honour the same allow-lists, range checks and uniqueness rules as the
// Postgres implementation so handlers see the same domain errors.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
)

var (
	_ repository.CompanyRepo = (*CompanyRepo)(nil)
	_ repository.JobRepo     = (*JobRepo)(nil)
	_ repository.UserRepo    = (*UserRepo)(nil)
)

// Mocks bundles the three repositories over one shared store.
type Mocks struct {
	Companies *CompanyRepo
	Jobs      *JobRepo
	Users     *UserRepo
}

func NewMocks() *Mocks {
	s := &store{
		companies: map[string]models.Company{},
		jobs:      map[int64]models.Job{},
		users:     map[string]userRecord{},
	}
	return &Mocks{
		Companies: &CompanyRepo{s: s},
		Jobs:      &JobRepo{s: s},
		Users:     &UserRepo{s: s},
	}
}

type userRecord struct {
	models.User
	password string
}

type store struct {
	mu        sync.Mutex
	companies map[string]models.Company
	jobs      map[int64]models.Job
	users     map[string]userRecord
	nextJobID int64
}

// CompanyRepo is an in-memory repository.CompanyRepo. Err, when set, is
// returned from every call.
type CompanyRepo struct {
	s   *store
	Err error
}

func (m *CompanyRepo) GetCompany(ctx context.Context, handle string) (*models.CompanyDetail, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	c, ok := m.s.companies[handle]
	if !ok {
		return nil, apperr.NotFound("No company: %s", handle)
	}
	d := &models.CompanyDetail{Company: c, Jobs: []models.CompanyJob{}}
	for _, j := range m.s.sortedJobs() {
		if j.CompanyHandle == handle {
			d.Jobs = append(d.Jobs, models.CompanyJob{
				ID: j.ID, Title: j.Title, Salary: j.Salary, Equity: j.Equity, DatePosted: j.DatePosted,
			})
		}
	}
	return d, nil
}

func (m *CompanyRepo) ListCompanies(ctx context.Context, f models.CompanyFilter) ([]models.CompanySummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := repository.CheckCompanyBounds(f); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := []models.CompanySummary{}
	for _, c := range m.s.companies {
		if f.Search != nil && !containsFold(c.Name, *f.Search) {
			continue
		}
		n := 0
		if c.NumEmployees != nil {
			n = *c.NumEmployees
		}
		if f.MinEmployees != nil && (c.NumEmployees == nil || n < *f.MinEmployees) {
			continue
		}
		if f.MaxEmployees != nil && (c.NumEmployees == nil || n > *f.MaxEmployees) {
			continue
		}
		out = append(out, models.CompanySummary{Handle: c.Handle, Name: c.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *CompanyRepo) CreateCompany(ctx context.Context, c *models.Company) (*models.Company, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if c.NumEmployees != nil {
		if err := repository.CheckEmployees(float64(*c.NumEmployees)); err != nil {
			return nil, err
		}
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if err := m.s.companyConflict(*c, ""); err != nil {
		return nil, err
	}
	m.s.companies[c.Handle] = *c
	out := *c
	return &out, nil
}

func (m *CompanyRepo) UpdateCompany(ctx context.Context, handle string, fields sqlbuild.Fields) (*models.Company, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	fields = fields.Only(repository.CompanyUpdatable...)
	if len(fields) == 0 {
		return nil, apperr.InvalidInput("no updatable fields supplied")
	}
	if v, ok := fields.Get("num_employees"); ok && v != nil {
		n, _ := repository.NumberValue(v)
		if err := repository.CheckEmployees(n); err != nil {
			return nil, err
		}
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	c, ok := m.s.companies[handle]
	if !ok {
		return nil, apperr.NotFound("No company: %s", handle)
	}
	for _, f := range fields {
		switch f.Name {
		case "handle":
			c.Handle, _ = f.Value.(string)
		case "name":
			c.Name, _ = f.Value.(string)
		case "num_employees":
			c.NumEmployees = intPtr(f.Value)
		case "description":
			c.Description = stringPtr(f.Value)
		case "logo_url":
			c.LogoURL = stringPtr(f.Value)
		}
	}
	if err := m.s.companyConflict(c, handle); err != nil {
		return nil, err
	}
	delete(m.s.companies, handle)
	m.s.companies[c.Handle] = c
	if c.Handle != handle {
		for id, j := range m.s.jobs {
			if j.CompanyHandle == handle {
				j.CompanyHandle = c.Handle
				m.s.jobs[id] = j
			}
		}
	}
	out := c
	return &out, nil
}

func (m *CompanyRepo) DeleteCompany(ctx context.Context, handle string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.companies[handle]; !ok {
		return "", apperr.NotFound("No company: %s", handle)
	}
	for id, j := range m.s.jobs {
		if j.CompanyHandle == handle {
			delete(m.s.jobs, id)
		}
	}
	delete(m.s.companies, handle)
	return handle, nil
}

// JobRepo is an in-memory repository.JobRepo.
type JobRepo struct {
	s   *store
	Err error
}

func (m *JobRepo) GetJob(ctx context.Context, id int64) (*models.JobDetail, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	j, ok := m.s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("No job: %d", id)
	}
	return &models.JobDetail{
		ID: j.ID, Title: j.Title, Salary: j.Salary, Equity: j.Equity, DatePosted: j.DatePosted,
		Company: m.s.companies[j.CompanyHandle],
	}, nil
}

func (m *JobRepo) ListJobs(ctx context.Context, f models.JobFilter) ([]models.JobSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := repository.CheckJobBounds(f); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := []models.JobSummary{}
	for _, j := range m.s.sortedJobs() {
		if f.Search != nil && !containsFold(j.Title, *f.Search) {
			continue
		}
		if f.MinSalary != nil && (j.Salary == nil || *j.Salary < *f.MinSalary) {
			continue
		}
		if f.MaxSalary != nil && (j.Salary == nil || *j.Salary > *f.MaxSalary) {
			continue
		}
		if f.MinEquity != nil && (j.Equity == nil || *j.Equity < *f.MinEquity) {
			continue
		}
		out = append(out, models.JobSummary{ID: j.ID, Title: j.Title, CompanyHandle: j.CompanyHandle})
	}
	return out, nil
}

func (m *JobRepo) CreateJob(ctx context.Context, j *models.Job) (*models.Job, error) {
	if m.Err != nil {
		return nil, m.Err
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
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.companies[j.CompanyHandle]; !ok {
		return nil, apperr.InvalidInput("No company: %s", j.CompanyHandle)
	}
	m.s.nextJobID++
	out := *j
	out.ID = m.s.nextJobID
	out.DatePosted = time.Now().UTC()
	m.s.jobs[out.ID] = out
	return &out, nil
}

func (m *JobRepo) UpdateJob(ctx context.Context, id int64, fields sqlbuild.Fields) (*models.Job, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	fields = fields.Only(repository.JobUpdatable...)
	if len(fields) == 0 {
		return nil, apperr.InvalidInput("no updatable fields supplied")
	}
	if err := repository.CheckJobFields(fields); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	j, ok := m.s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("No job: %d", id)
	}
	for _, f := range fields {
		switch f.Name {
		case "title":
			j.Title, _ = f.Value.(string)
		case "salary":
			j.Salary = floatPtr(f.Value)
		case "equity":
			j.Equity = floatPtr(f.Value)
		}
	}
	m.s.jobs[id] = j
	out := j
	return &out, nil
}

func (m *JobRepo) DeleteJob(ctx context.Context, id int64) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.jobs[id]; !ok {
		return 0, apperr.NotFound("No job: %d", id)
	}
	delete(m.s.jobs, id)
	return id, nil
}

// UserRepo is an in-memory repository.UserRepo. Passwords are kept in
// clear text; it is a test double.
type UserRepo struct {
	s   *store
	Err error
}

// SetAdmin flips the admin flag of an existing user, standing in for the
// out-of-band promotion the public API does not offer.
func (m *UserRepo) SetAdmin(username string, admin bool) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[username]; ok {
		u.IsAdmin = admin
		m.s.users[username] = u
	}
}

func (m *UserRepo) Register(ctx context.Context, nu models.NewUser) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u := models.User{
		Username: nu.Username, FirstName: nu.FirstName, LastName: nu.LastName,
		Email: nu.Email, PhotoURL: nu.PhotoURL,
	}
	if err := m.s.userConflict(u, ""); err != nil {
		return nil, err
	}
	m.s.users[u.Username] = userRecord{User: u, password: nu.Password}
	out := u
	return &out, nil
}

func (m *UserRepo) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	rec, ok := m.s.users[username]
	if !ok || rec.password != password {
		return nil, apperr.InvalidCredentials()
	}
	out := rec.User
	return &out, nil
}

func (m *UserRepo) GetUser(ctx context.Context, username string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	rec, ok := m.s.users[username]
	if !ok {
		return nil, apperr.NotFound("No user: %s", username)
	}
	out := rec.User
	return &out, nil
}

func (m *UserRepo) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make([]models.UserSummary, 0, len(m.s.users))
	for _, rec := range m.s.users {
		out = append(out, models.UserSummary{
			Username: rec.Username, FirstName: rec.FirstName, LastName: rec.LastName, Email: rec.Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *UserRepo) UpdateUser(ctx context.Context, username string, fields sqlbuild.Fields) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	fields = fields.Only(repository.UserUpdatable...)
	if len(fields) == 0 {
		return nil, apperr.InvalidInput("no updatable fields supplied")
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	rec, ok := m.s.users[username]
	if !ok {
		return nil, apperr.NotFound("No user: %s", username)
	}
	for _, f := range fields {
		switch f.Name {
		case "username":
			rec.Username, _ = f.Value.(string)
		case "password":
			rec.password, _ = f.Value.(string)
		case "first_name":
			rec.FirstName, _ = f.Value.(string)
		case "last_name":
			rec.LastName, _ = f.Value.(string)
		case "email":
			rec.Email, _ = f.Value.(string)
		case "photo_url":
			rec.PhotoURL = stringPtr(f.Value)
		}
	}
	if err := m.s.userConflict(rec.User, username); err != nil {
		return nil, err
	}
	delete(m.s.users, username)
	m.s.users[rec.Username] = rec
	out := rec.User
	return &out, nil
}

func (m *UserRepo) DeleteUser(ctx context.Context, username string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[username]; !ok {
		return "", apperr.NotFound("No user: %s", username)
	}
	delete(m.s.users, username)
	return username, nil
}

// companyConflict checks uniqueness of c against every company except the
// one currently keyed by self.
func (s *store) companyConflict(c models.Company, self string) error {
	for h, other := range s.companies {
		if h == self {
			continue
		}
		if other.Handle == c.Handle {
			return apperr.Conflict("handle", "Duplicate handle: %s", c.Handle)
		}
		if other.Name == c.Name {
			return apperr.Conflict("name", "Duplicate name: %s", c.Name)
		}
	}
	return nil
}

func (s *store) userConflict(u models.User, self string) error {
	for name, other := range s.users {
		if name == self {
			continue
		}
		if other.Username == u.Username {
			return apperr.Conflict("username", "Duplicate username: %s", u.Username)
		}
		if other.Email == u.Email {
			return apperr.Conflict("email", "Duplicate email: %s", u.Email)
		}
	}
	return nil
}

func (s *store) sortedJobs() []models.Job {
	out := make([]models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func intPtr(v any) *int {
	n, ok := repository.NumberValue(v)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

func floatPtr(v any) *float64 {
	n, ok := repository.NumberValue(v)
	if !ok {
		return nil
	}
	return &n
}
