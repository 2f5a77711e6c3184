package models

import "time"

// Domain models matching the database schema in db/migrations/0001_init.sql

type Company struct {
	Handle       string  `json:"handle" db:"handle"`
	Name         string  `json:"name" db:"name"`
	NumEmployees *int    `json:"num_employees" db:"num_employees"`
	Description  *string `json:"description" db:"description"`
	LogoURL      *string `json:"logo_url" db:"logo_url"`
}

// CompanySummary is the list projection of a company.
type CompanySummary struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

// CompanyDetail is a company with its jobs.
type CompanyDetail struct {
	Company
	Jobs []CompanyJob `json:"jobs"`
}

// CompanyJob is a job as nested under its company.
type CompanyJob struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Salary     *float64  `json:"salary"`
	Equity     *float64  `json:"equity"`
	DatePosted time.Time `json:"date_posted"`
}

type CompanyFilter struct {
	Search       *string
	MinEmployees *int
	MaxEmployees *int
}

type Job struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Salary        *float64  `json:"salary" db:"salary"`
	Equity        *float64  `json:"equity" db:"equity"`
	DatePosted    time.Time `json:"date_posted" db:"date_posted"`
	CompanyHandle string    `json:"company_handle" db:"company_handle"`
}

type JobSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	CompanyHandle string `json:"company_handle"`
}

// JobDetail is a job with its company in place of the handle.
type JobDetail struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Salary     *float64  `json:"salary"`
	Equity     *float64  `json:"equity"`
	DatePosted time.Time `json:"date_posted"`
	Company    Company   `json:"company"`
}

type JobFilter struct {
	Search    *string
	MinSalary *float64
	MaxSalary *float64
	MinEquity *float64
}

// User is the public projection of a user; the password hash never leaves
// the repository.
type User struct {
	Username  string  `json:"username" db:"username"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Email     string  `json:"email" db:"email"`
	PhotoURL  *string `json:"photo_url" db:"photo_url"`
	IsAdmin   bool    `json:"is_admin" db:"is_admin"`
}

type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewUser is the registration payload.
type NewUser struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	PhotoURL  *string `json:"photo_url"`
}
