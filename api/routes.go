package api

import (
	"fmt"
	"log/slog"

	"github.com/garnizeh/jobly/internal/auth"
	"github.com/garnizeh/jobly/internal/config"
	"github.com/garnizeh/jobly/internal/db"
	"github.com/garnizeh/jobly/internal/repository/postgres"
	"github.com/garnizeh/jobly/internal/validate"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/gorilla/mux"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Companies repository.CompanyRepo
	Jobs      repository.JobRepo
	Users     repository.UserRepo
	Tokens    *auth.Tokens
	Schemas   *validate.Loader
	DB        Pinger
}

// SetupRoutes builds the production router on top of Postgres. rv may be nil,
// in which case logout does not invalidate tokens server-side.
func SetupRoutes(cfg *config.Config, version, buildTime string, d *db.DB, rv auth.Revocations) (*mux.Router, error) {
	schemas, err := validate.NewLoader(nil)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	logger.Debug("request schemas loaded", slog.Any("schemas", schemas.Names()))

	// Repository
	repo := postgres.New(d, auth.NewHasher(cfg.BcryptCost), logger)

	return NewRouter(Deps{
		Companies: repo,
		Jobs:      repo,
		Users:     repo,
		Tokens:    auth.NewTokens(cfg.JWTSecret, cfg.TokenDuration, rv),
		Schemas:   schemas,
		DB:        d,
	}, version, buildTime), nil
}

func NewRouter(d Deps, version, buildTime string) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = NotFoundHandler()
	r.MethodNotAllowedHandler = MethodNotAllowedHandler()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(AuthenticateMiddleware(d.Tokens))

	// Create handlers
	systemHandler := &SystemHandler{DB: d.DB}
	companiesHandler := NewCompaniesHandler(d.Companies, d.Schemas)
	jobsHandler := NewJobsHandler(d.Jobs, d.Schemas)
	usersHandler := NewUsersHandler(d.Users, d.Tokens, d.Schemas)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/users", usersHandler.Register).Methods("POST")
	r.HandleFunc("/users/login", usersHandler.Login).Methods("POST")

	// Companies endpoints
	r.Handle("/companies", requires(auth.LoggedIn, companiesHandler.ListCompanies)).Methods("GET")
	r.Handle("/companies", requires(auth.Admin, companiesHandler.CreateCompany)).Methods("POST")
	r.Handle("/companies/{handle}", requires(auth.LoggedIn, companiesHandler.GetCompany)).Methods("GET")
	r.Handle("/companies/{handle}", requires(auth.Admin, companiesHandler.UpdateCompany)).Methods("PATCH")
	r.Handle("/companies/{handle}", requires(auth.Admin, companiesHandler.DeleteCompany)).Methods("DELETE")

	// Jobs endpoints
	r.Handle("/jobs", requires(auth.LoggedIn, jobsHandler.ListJobs)).Methods("GET")
	r.Handle("/jobs", requires(auth.Admin, jobsHandler.CreateJob)).Methods("POST")
	r.Handle("/jobs/{id}", requires(auth.LoggedIn, jobsHandler.GetJob)).Methods("GET")
	r.Handle("/jobs/{id}", requires(auth.Admin, jobsHandler.UpdateJob)).Methods("PATCH")
	r.Handle("/jobs/{id}", requires(auth.Admin, jobsHandler.DeleteJob)).Methods("DELETE")

	// Users endpoints; update and delete check self-or-admin in the handler
	r.Handle("/users/logout", requires(auth.LoggedIn, usersHandler.Logout)).Methods("POST")
	r.Handle("/users", requires(auth.LoggedIn, usersHandler.ListUsers)).Methods("GET")
	r.Handle("/users/{username}", requires(auth.LoggedIn, usersHandler.GetUser)).Methods("GET")
	r.Handle("/users/{username}", requires(auth.LoggedIn, usersHandler.UpdateUser)).Methods("PATCH")
	r.Handle("/users/{username}", requires(auth.LoggedIn, usersHandler.DeleteUser)).Methods("DELETE")

	return r
}
