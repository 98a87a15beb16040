// Package httptransport is the thin HTTP layer over the auth service. It
// owns request parsing, the response envelope, and routing; business rules
// stay in the service packages.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adminauth/internal/auth/models"
	"adminauth/internal/platform/middleware"
	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/requestcontext"
)

// AuthService is the surface the transport layer needs from the auth core.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*models.LoginResult, error)
	Verify(ctx context.Context, tokenString string) (*models.PublicUser, error)
	Logout(ctx context.Context, tokenString string) error
	CreateUser(ctx context.Context, username, password, fullName string, role models.Role) (*models.PublicUser, error)
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
	DeactivateUser(ctx context.Context, username string) error
}

// Handler handles the auth endpoints.
type Handler struct {
	auth   AuthService
	logger *slog.Logger
}

// New creates the auth Handler.
func New(auth AuthService, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Verifier adapts the auth service to the middleware.TokenVerifier contract.
func (h *Handler) Verifier() middleware.TokenVerifier {
	return serviceVerifier{auth: h.auth}
}

type serviceVerifier struct {
	auth AuthService
}

func (v serviceVerifier) VerifyToken(ctx context.Context, tokenString string) (middleware.TokenClaims, error) {
	u, err := v.auth.Verify(ctx, tokenString)
	if err != nil {
		return middleware.TokenClaims{}, err
	}
	return middleware.TokenClaims{
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}, nil
}

// Register wires the public action endpoint and the admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleAction)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.RequireAuth(h.Verifier(), h.logger))
		admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
		admin.Get("/users", h.handleListUsers)
		admin.Post("/users", h.handleCreateUser)
		admin.Post("/users/password", h.handleChangePassword)
		admin.Post("/users/deactivate", h.handleDeactivateUser)
	})
}

// handleAction dispatches the single action-based endpoint.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cmd, err := parseCommand(req)
	if err != nil {
		writeError(w, err)
		return
	}

	switch c := cmd.(type) {
	case LoginCommand:
		result, err := h.auth.Login(ctx, c.Username, c.Password)
		if err != nil {
			h.logFailure(ctx, "login failed", err)
			writeError(w, err)
			return
		}
		writeSuccess(w, "login successful", result)

	case VerifyCommand:
		user, err := h.auth.Verify(ctx, c.Token)
		if err != nil {
			h.logFailure(ctx, "verify failed", err)
			writeError(w, err)
			return
		}
		writeSuccess(w, "session valid", map[string]any{"user": user})

	case LogoutCommand:
		if err := h.auth.Logout(ctx, c.Token); err != nil {
			h.logFailure(ctx, "logout failed", err)
			writeError(w, err)
			return
		}
		writeSuccess(w, "logout successful", nil)

	default:
		// parseCommand returns only the three commands above.
		writeError(w, dErrors.New(dErrors.CodeInternal, "unhandled command"))
	}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"nama"`
	Role     string `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleAdmin
	}
	user, err := h.auth.CreateUser(r.Context(), req.Username, req.Password, req.FullName, role)
	if err != nil {
		h.logFailure(r.Context(), "create user failed", err)
		writeError(w, err)
		return
	}
	writeSuccess(w, "user created", map[string]any{"user": user})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "list users failed", err)
		writeError(w, err)
		return
	}
	writeSuccess(w, "user list", map[string]any{"users": users})
}

type changePasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.auth.ChangePassword(r.Context(), req.Username, req.NewPassword); err != nil {
		h.logFailure(r.Context(), "change password failed", err)
		writeError(w, err)
		return
	}
	writeSuccess(w, "password changed", nil)
}

type deactivateUserRequest struct {
	Username string `json:"username"`
}

func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	var req deactivateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.auth.DeactivateUser(r.Context(), req.Username); err != nil {
		h.logFailure(r.Context(), "deactivate user failed", err)
		writeError(w, err)
		return
	}
	writeSuccess(w, "user deactivated", nil)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
