package api

import (
	"net/http"
	"strconv"

	"github.com/garnizeh/jobly/internal/validate"
	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/gorilla/mux"
)

type JobsHandler struct {
	repo    repository.JobRepo
	schemas *validate.Loader
}

func NewJobsHandler(repo repository.JobRepo, schemas *validate.Loader) *JobsHandler {
	return &JobsHandler{repo: repo, schemas: schemas}
}

type jobResponse struct {
	Job any `json:"job"`
}

type jobsResponse struct {
	Jobs []models.JobSummary `json:"jobs"`
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f models.JobFilter
	if v := q.Get("search"); v != "" {
		f.Search = &v
	}

	bounds := []struct {
		name string
		dst  **float64
	}{
		{"min_salary", &f.MinSalary},
		{"max_salary", &f.MaxSalary},
		{"min_equity", &f.MinEquity},
	}
	var err error
	for _, b := range bounds {
		if *b.dst, err = floatParam(q, b.name); err != nil {
			writeError(w, r, err)
			return
		}
	}

	jobs, err := h.repo.ListJobs(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []models.JobSummary{}
	}

	writeJSON(w, jobsResponse{Jobs: jobs}, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	j, err := h.repo.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, jobResponse{Job: j}, http.StatusOK)
}

type createJobRequest struct {
	Title         string   `json:"title"`
	Salary        *float64 `json:"salary"`
	Equity        *float64 `json:"equity"`
	CompanyHandle string   `json:"company_handle"`
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.schemas.Validate(r.Context(), validate.JobCreate, body); err != nil {
		writeError(w, r, err)
		return
	}

	var req createJobRequest
	if err := decode(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.repo.CreateJob(r.Context(), &models.Job{
		Title:         req.Title,
		Salary:        req.Salary,
		Equity:        req.Equity,
		CompanyHandle: req.CompanyHandle,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, jobResponse{Job: created}, http.StatusCreated)
}

func (h *JobsHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := patchFields(h.schemas, w, r, validate.JobUpdate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.repo.UpdateJob(r.Context(), id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, jobResponse{Job: updated}, http.StatusOK)
}

func (h *JobsHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.repo.DeleteJob(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, messageResponse{Message: "Job deleted"}, http.StatusOK)
}

// jobID parses the {id} path variable. An id that is not a number, or too
// large for the id column, cannot name a job and is reported as not found.
func jobID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, apperr.NotFound("No job: %s", raw)
	}
	return id, nil
}
