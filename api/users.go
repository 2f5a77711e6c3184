package api

import (
	"log/slog"
	"net/http"

	"github.com/garnizeh/jobly/internal/auth"
	"github.com/garnizeh/jobly/internal/validate"
	"github.com/garnizeh/jobly/pkg/models"
	"github.com/garnizeh/jobly/pkg/repository"
	"github.com/gorilla/mux"
)

type UsersHandler struct {
	repo    repository.UserRepo
	tokens  *auth.Tokens
	schemas *validate.Loader
}

// NewUsersHandler creates a new UsersHandler with required dependencies.
func NewUsersHandler(repo repository.UserRepo, tokens *auth.Tokens, schemas *validate.Loader) *UsersHandler {
	return &UsersHandler{repo: repo, tokens: tokens, schemas: schemas}
}

type tokenResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type userResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

type usersResponse struct {
	Users []models.UserSummary `json:"users"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.schemas.Validate(r.Context(), validate.UserCreate, body); err != nil {
		writeError(w, r, err)
		return
	}

	var nu models.NewUser
	if err := decode(body, &nu); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.repo.Register(r.Context(), nu)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, tokenResponse{Token: token, Message: "Registered successfully"}, http.StatusCreated)
}

func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.schemas.Validate(r.Context(), validate.UserLogin, body); err != nil {
		writeError(w, r, err)
		return
	}

	var req loginRequest
	if err := decode(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.repo.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, tokenResponse{Token: token, Message: "Logged in successfully"}, http.StatusOK)
}

// Logout revokes the presented token. Without a revocation store this only
// acknowledges the request.
func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Revoke(r.Context(), auth.IdentityFromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, messageResponse{Message: "Logged out"}, http.StatusOK)
}

func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.UserSummary{}
	}

	writeJSON(w, usersResponse{Users: users}, http.StatusOK)
}

func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.GetUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, userResponse{User: u}, http.StatusOK)
}

// UpdateUser is allowed for the user themselves and for admins. When users
// rename themselves they get a fresh token and the old one is revoked, since
// it names a username someone else may register later.
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	caller := auth.IdentityFromContext(r.Context())
	if err := auth.Authorize(caller, auth.SelfOrAdmin, username); err != nil {
		writeError(w, r, err)
		return
	}

	fields, err := patchFields(h.schemas, w, r, validate.UserUpdate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.repo.UpdateUser(r.Context(), username, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := userResponse{User: u}
	if u.Username != username && caller.Username == username {
		if resp.Token, err = h.tokens.Issue(u); err != nil {
			writeError(w, r, err)
			return
		}
		h.revokeCaller(r, caller)
	}

	writeJSON(w, resp, http.StatusOK)
}

func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	caller := auth.IdentityFromContext(r.Context())
	if err := auth.Authorize(caller, auth.SelfOrAdmin, username); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.repo.DeleteUser(r.Context(), username); err != nil {
		writeError(w, r, err)
		return
	}
	if caller.Username == username {
		h.revokeCaller(r, caller)
	}

	writeJSON(w, messageResponse{Message: "User deleted"}, http.StatusOK)
}

// revokeCaller retires the caller's token after the change it authorized has
// been committed. A failure is logged; the change itself stands.
func (h *UsersHandler) revokeCaller(r *http.Request, caller *auth.Identity) {
	if err := h.tokens.Revoke(r.Context(), caller); err != nil {
		logger.Warn("token revocation failed",
			slog.String("request_id", requestID(r.Context())),
			slog.String("username", caller.Username),
			slog.Any("err", err),
		)
	}
}
