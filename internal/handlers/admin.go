package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AdminHandler provides user management and application settings endpoints.
// Every route requires the admin role.
type AdminHandler struct {
	userService *services.UserService
	settings    *services.SettingsService
	logger      *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(userService *services.UserService, settings *services.SettingsService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		settings:    settings,
		logger:      logger,
	}
}

// AdminRouter registers the admin routes on the given router. The JWT
// middleware must already have run.
func (h *AdminHandler) AdminRouter(r chi.Router) {
	r.Use(requireAdmin(h.userService))
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Put("/users/{userID}/role", h.ChangeRole)
	r.Delete("/users/{userID}", h.DeleteUser)
	r.Get("/settings", h.ListSettings)
	r.Put("/settings/{key}", h.UpdateSetting)
}

// ListUsers returns all registered users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser registers a new account.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.Create(r.Context(), req.Username, req.Name, req.Role, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username already taken")
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("failed to create user", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ChangeRole updates a user's role, refusing to demote the last admin.
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrLastAdmin):
			writeError(w, http.StatusConflict, "cannot demote the last administrator")
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("failed to change role", "user_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to change role")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account, refusing self-deletion and removal of the
// last admin.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	requestedBy, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userService.Delete(r.Context(), id, requestedBy); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrSelfDelete):
			writeError(w, http.StatusConflict, "cannot delete your own account")
		case errors.Is(err, services.ErrLastAdmin):
			writeError(w, http.StatusConflict, "cannot delete the last administrator")
		default:
			h.logger.Error("failed to delete user", "user_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSettings returns the effective application settings.
func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.settings.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// UpdateSetting stores a setting value. An empty value resets the key to
// its default.
func (h *AdminHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "invalid setting key")
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.settings.Set(r.Context(), key, req.Value); err != nil {
		h.logger.Error("failed to update setting", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update setting")
		return
	}

	value, err := h.settings.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load setting")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{Key: key, Value: value})
}

// requireAdmin loads the authenticated user and rejects anyone without the
// admin role.
func requireAdmin(users *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}

			if user.Role != types.RoleAdmin {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
