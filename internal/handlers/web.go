package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/types"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookieName is the cookie carrying the browser session token.
const SessionCookieName = "session_token"

// WebHandler serves the session-cookie HTML surface: login, logout,
// dashboard and analysis pages.
type WebHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	reportService  *services.ReportService
	settings       *services.SettingsService
	templates      *template.Template
	secureCookie   bool
	logger         *slog.Logger
}

// NewWebHandler constructs a WebHandler with the provided dependencies.
func NewWebHandler(
	userService *services.UserService,
	sessionService *services.SessionService,
	reportService *services.ReportService,
	settings *services.SettingsService,
	secureCookie bool,
	logger *slog.Logger,
) (*WebHandler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &WebHandler{
		userService:    userService,
		sessionService: sessionService,
		reportService:  reportService,
		settings:       settings,
		templates:      templates,
		secureCookie:   secureCookie,
		logger:         logger,
	}, nil
}

// WebRouter registers the browser routes on the given router.
func (h *WebHandler) WebRouter(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.With(h.RequireSession).Get("/dashboard", h.Dashboard)
	r.With(h.RequireSession).Get("/analysis", h.Analysis)
}

// RequireSession resolves the session cookie and injects the signed-in user
// into the request context. Requests without a valid session are redirected
// to the login page.
func (h *WebHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, err := h.sessionService.Validate(r.Context(), cookie.Value)
		if err != nil {
			h.clearCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := h.userService.GetByID(r.Context(), session.UserID)
		if err != nil {
			h.clearCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Index sends the visitor to the dashboard or the login page.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.sessionService.Validate(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type loginPageData struct {
	Error string
}

// LoginPage renders the login form.
func (h *WebHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", loginPageData{})
}

// Login handles the login form submission.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", loginPageData{Error: "Invalid form submission."})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := h.userService.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.render(w, http.StatusUnauthorized, "login.html", loginPageData{Error: "Invalid username or password."})
			return
		}
		h.logger.Error("login failed", "error", err)
		h.render(w, http.StatusInternalServerError, "login.html", loginPageData{Error: "Something went wrong. Please try again."})
		return
	}

	session, err := h.sessionService.Start(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to start session", "user_id", user.ID, "error", err)
		h.render(w, http.StatusInternalServerError, "login.html", loginPageData{Error: "Something went wrong. Please try again."})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout ends the session and redirects to the login page.
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessionService.End(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("failed to end session", "error", err)
		}
	}
	h.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type dashboardPageData struct {
	User       types.User
	KPI        types.KPISummary
	TopDefects []types.DefectTally
	Settings   map[string]string
	IsAdmin    bool
	CanAnalyze bool
}

// Dashboard renders the signed-in landing page.
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	kpi, err := h.reportService.KPISummary(r.Context())
	if err != nil {
		h.logger.Error("failed to compute kpi summary", "error", err)
	}

	topDefects, err := h.reportService.TopDefects(r.Context(), time.Now().Add(-7*24*time.Hour), 5)
	if err != nil {
		h.logger.Error("failed to compute top defects", "error", err)
	}

	settings, err := h.settings.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
	}

	h.render(w, http.StatusOK, "dashboard.html", dashboardPageData{
		User:       user,
		KPI:        kpi,
		TopDefects: topDefects,
		Settings:   settings,
		IsAdmin:    user.Role == types.RoleAdmin,
		CanAnalyze: user.Role == types.RoleAdmin || user.Role == types.RoleManager,
	})
}

type analysisPageData struct {
	User       types.User
	KPI        types.KPISummary
	TopDefects []types.DefectTally
	Settings   map[string]string
}

// Analysis renders the KPI breakdown for managers and administrators.
func (h *WebHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if user.Role != types.RoleAdmin && user.Role != types.RoleManager {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	kpi, err := h.reportService.KPISummary(r.Context())
	if err != nil {
		h.logger.Error("failed to compute kpi summary", "error", err)
	}

	topDefects, err := h.reportService.TopDefects(r.Context(), time.Now().Add(-7*24*time.Hour), 10)
	if err != nil {
		h.logger.Error("failed to compute top defects", "error", err)
	}

	settings, err := h.settings.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
	}

	h.render(w, http.StatusOK, "analysis.html", analysisPageData{
		User:       user,
		KPI:        kpi,
		TopDefects: topDefects,
		Settings:   settings,
	})
}

func (h *WebHandler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
	}
}

func (h *WebHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
