package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"enroll/internal/registration/models"
	"enroll/pkg/httputil"
)

// Service is the handler's port to the registration pipeline.
type Service interface {
	Register(ctx context.Context, cmd models.RegisterCommand) (models.RegisterResult, error)
}

// Handler wires the registration endpoint to the pipeline. It never exposes
// which stage failed; clients get a generic server error while the pipeline
// logs the stage detail.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registration endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/user", h.HandleCreateUser)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r createUserRequest) validate() string {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return "name is required"
	case r.Email == "":
		return "email is required"
	case r.Password == "":
		return "password is required"
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return "email is not valid"
	}
	return ""
}

// HandleCreateUser handles POST /user requests.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	result, err := h.service.Register(ctx, models.RegisterCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "create user failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}
