package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/floorreports/apiserver/internal/services"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ReportHandler provides HTTP handlers for AOI reports and the defect
// dictionary.
type ReportHandler struct {
	reportService *services.ReportService
	syncService   *services.SyncService
	weeklyService *services.WeeklyReportService
	userService   *services.UserService
	logger        *slog.Logger
}

// NewReportHandler constructs a handler with the provided services.
func NewReportHandler(
	reportService *services.ReportService,
	syncService *services.SyncService,
	weeklyService *services.WeeklyReportService,
	userService *services.UserService,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		syncService:   syncService,
		weeklyService: weeklyService,
		userService:   userService,
		logger:        logger,
	}
}

// ReportRouter registers report routes on the given router. All routes
// assume the JWT middleware already ran.
func (h *ReportHandler) ReportRouter(r chi.Router) {
	r.Get("/defect-codes", h.ListDefectCodes)
	r.Get("/kpi/summary", h.KPISummary)
	r.Get("/kpi/top-defects", h.TopDefects)
	r.Post("/aoi-reports", h.CreateReport)
	r.Get("/aoi-reports/{reportID}", h.GetReport)
	r.With(requireAdmin(h.userService)).Post("/sync", h.TriggerSync)
	r.With(requireAdmin(h.userService)).Post("/reports/weekly", h.GenerateWeekly)
	r.With(requireAdmin(h.userService)).Get("/reports/weekly/{key}", h.DownloadWeekly)
}

// ListDefectCodes returns the local defect code cache.
func (h *ReportHandler) ListDefectCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.syncService.Codes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list defect codes")
		return
	}
	if codes == nil {
		codes = []types.DefectCode{}
	}
	writeJSON(w, http.StatusOK, codes)
}

// CreateReport validates and stores a new AOI report.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req services.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	report, err := h.reportService.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("failed to create report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create report")
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// GetReport returns one report with its joined reference data.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "reportID"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	details, err := h.reportService.GetDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch report")
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// KPISummary returns site-wide inspection totals.
func (h *ReportHandler) KPISummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.KPISummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute kpi summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// TopDefects returns the highest-count defect codes for the trailing week.
func (h *ReportHandler) TopDefects(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-7 * 24 * time.Hour)
	tallies, err := h.reportService.TopDefects(r.Context(), since, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute top defects")
		return
	}
	if tallies == nil {
		tallies = []types.DefectTally{}
	}
	writeJSON(w, http.StatusOK, tallies)
}

// TriggerSync runs a defect code sync on demand.
func (h *ReportHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	entries, err := h.syncService.Sync(r.Context())
	if err != nil {
		h.logger.Warn("on-demand defect code sync failed", "error", err)
		writeError(w, http.StatusBadGateway, "sync failed; local cache unchanged")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Entries int `json:"entries"`
	}{Entries: entries})
}

// GenerateWeekly renders and stores the trailing-week report artifact.
func (h *ReportHandler) GenerateWeekly(w http.ResponseWriter, r *http.Request) {
	key, err := h.weeklyService.Generate(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("failed to generate weekly report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate weekly report")
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Key string `json:"key"`
	}{Key: key})
}

// DownloadWeekly streams a previously generated report artifact.
func (h *ReportHandler) DownloadWeekly(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" || strings.Contains(key, "..") {
		writeError(w, http.StatusBadRequest, "invalid artifact key")
		return
	}

	rc, err := h.weeklyService.Open(r.Context(), "reports/"+key)
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream artifact", "key", key, "error", err)
	}
}
