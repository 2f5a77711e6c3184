package api

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/garnizeh/jobly/internal/validate"
	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
	"github.com/gorilla/mux"
)

type CompaniesHandler struct {
	repo    repository.CompanyRepo
	schemas *validate.Loader
}

// NewCompaniesHandler creates a new CompaniesHandler with required dependencies.
func NewCompaniesHandler(repo repository.CompanyRepo, schemas *validate.Loader) *CompaniesHandler {
	return &CompaniesHandler{repo: repo, schemas: schemas}
}

type companyResponse struct {
	Company any `json:"company"`
}

type companiesResponse struct {
	Companies []models.CompanySummary `json:"companies"`
}

func (h *CompaniesHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	f, err := companyFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	companies, err := h.repo.ListCompanies(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if companies == nil {
		companies = []models.CompanySummary{}
	}

	writeJSON(w, companiesResponse{Companies: companies}, http.StatusOK)
}

func (h *CompaniesHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.GetCompany(r.Context(), mux.Vars(r)["handle"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, companyResponse{Company: c}, http.StatusOK)
}

func (h *CompaniesHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.schemas.Validate(r.Context(), validate.CompanyCreate, body); err != nil {
		writeError(w, r, err)
		return
	}

	var c models.Company
	if err := decode(body, &c); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.repo.CreateCompany(r.Context(), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, companyResponse{Company: created}, http.StatusCreated)
}

func (h *CompaniesHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	fields, err := patchFields(h.schemas, w, r, validate.CompanyUpdate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.repo.UpdateCompany(r.Context(), mux.Vars(r)["handle"], fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, companyResponse{Company: updated}, http.StatusOK)
}

func (h *CompaniesHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if _, err := h.repo.DeleteCompany(r.Context(), mux.Vars(r)["handle"]); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, messageResponse{Message: "Company deleted"}, http.StatusOK)
}

// patchFields validates a PATCH body and returns its top-level members as
// update fields. Reserved fields such as _token are left in; the
// repositories drop them.
func patchFields(schemas *validate.Loader, w http.ResponseWriter, r *http.Request, schema string) (sqlbuild.Fields, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(r.Context(), schema, body); err != nil {
		return nil, err
	}

	var m map[string]any
	if err := decode(body, &m); err != nil {
		return nil, err
	}
	return sqlbuild.FieldsFromMap(m), nil
}

func companyFilter(q url.Values) (models.CompanyFilter, error) {
	var f models.CompanyFilter
	if v := q.Get("search"); v != "" {
		f.Search = &v
	}
	var err error
	if f.MinEmployees, err = intParam(q, "min_employees"); err != nil {
		return f, err
	}
	if f.MaxEmployees, err = intParam(q, "max_employees"); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return nil, apperr.InvalidInput("%s is out of range", name)
	}
	if err != nil {
		return nil, apperr.InvalidInput("%s must be an integer", name)
	}
	i := int(n)
	return &i, nil
}

func floatParam(q url.Values, name string) (*float64, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, apperr.InvalidInput("%s must be a number", name)
	}
	return &n, nil
}
