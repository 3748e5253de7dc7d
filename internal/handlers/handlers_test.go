package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// In-memory repositories backing the real services in handler tests.

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) List(ctx context.Context) ([]types.User, error) {
	var users []types.User
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *memUserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	count := 0
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memSessionRepo struct {
	sessions map[string]types.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]types.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, session types.Session) error {
	r.sessions[session.Token] = session
	return nil
}

func (r *memSessionRepo) Get(ctx context.Context, token string) (types.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *memSessionRepo) Delete(ctx context.Context, token string) error {
	if _, ok := r.sessions[token]; !ok {
		return store.ErrNotFound
	}
	delete(r.sessions, token)
	return nil
}

func (r *memSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for token, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (r *memSessionRepo) DeleteForUser(ctx context.Context, userID int) error {
	for token, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, token)
		}
	}
	return nil
}

type memReportRepo struct {
	reports map[string]types.ReportDetails
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]types.ReportDetails)}
}

func (r *memReportRepo) Create(ctx context.Context, req store.NewReport) (types.AOIReport, error) {
	report := types.AOIReport{
		ID:              "report-1",
		ReportTS:        time.Now(),
		BoardsInspected: req.BoardsInspected,
		BoardsNG:        req.BoardsNG,
		Notes:           req.Notes,
	}
	r.reports[report.ID] = types.ReportDetails{
		Report:         report,
		JobNumber:      req.JobNumber,
		AssemblyNumber: req.AssemblyNumber,
		OperationName:  req.OperationName,
		LineName:       req.LineName,
	}
	return report, nil
}

func (r *memReportRepo) GetDetails(ctx context.Context, id string) (types.ReportDetails, error) {
	details, ok := r.reports[id]
	if !ok {
		return types.ReportDetails{}, store.ErrNotFound
	}
	return details, nil
}

func (r *memReportRepo) KPISummary(ctx context.Context) (types.KPISummary, error) {
	var summary types.KPISummary
	for _, details := range r.reports {
		summary.TotalBoards += details.Report.BoardsInspected
		summary.TotalNG += details.Report.BoardsNG
	}
	if summary.TotalBoards > 0 {
		summary.SitePPM = float64(summary.TotalNG) / float64(summary.TotalBoards) * 1_000_000
	}
	return summary, nil
}

func (r *memReportRepo) TopDefects(ctx context.Context, since time.Time, limit int) ([]types.DefectTally, error) {
	return nil, nil
}

type memSettingRepo struct {
	values map[string]string
}

func newMemSettingRepo() *memSettingRepo {
	return &memSettingRepo{values: make(map[string]string)}
}

func (r *memSettingRepo) Get(ctx context.Context, key string) (types.Setting, error) {
	value, ok := r.values[key]
	if !ok {
		return types.Setting{}, store.ErrNotFound
	}
	return types.Setting{Key: key, Value: value}, nil
}

func (r *memSettingRepo) Set(ctx context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *memSettingRepo) All(ctx context.Context) ([]types.Setting, error) {
	var settings []types.Setting
	for key, value := range r.values {
		settings = append(settings, types.Setting{Key: key, Value: value})
	}
	return settings, nil
}

// testEnv wires real services over in-memory repositories behind a chi
// router, mirroring the production route layout.
type testEnv struct {
	router   *chi.Mux
	users    *services.UserService
	sessions *services.SessionService
}

const testJWTSecret = "test-secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userService := services.NewUserService(newMemUserRepo())
	sessionService := services.NewSessionService(newMemSessionRepo(), time.Hour)
	reportService := services.NewReportService(newMemReportRepo(), nil, logger)
	settingsService := services.NewSettingsService(newMemSettingRepo())

	webHandler, err := NewWebHandler(userService, sessionService, reportService, settingsService, false, logger)
	require.NoError(t, err)

	adminHandler := NewAdminHandler(userService, settingsService, logger)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Group(webHandler.WebRouter)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			APIAuthRouter(r, userService, testJWTSecret)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(testJWTSecret))
			r.Route("/admin", adminHandler.AdminRouter)
		})
	})

	return &testEnv{
		router:   router,
		users:    userService,
		sessions: sessionService,
	}
}

func (e *testEnv) createUser(t *testing.T, username, role, password string) types.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), username, "Test "+username, role, password)
	require.NoError(t, err)
	return user
}
