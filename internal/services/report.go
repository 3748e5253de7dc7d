package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/floorreports/apiserver/internal/events"
	"github.com/floorreports/apiserver/internal/store"
	"github.com/floorreports/apiserver/types"
)

// ErrValidation wraps any report payload problem a client can fix.
var ErrValidation = errors.New("validation failed")

// ReportRepository defines persistence operations for AOI reports.
type ReportRepository interface {
	Create(ctx context.Context, req store.NewReport) (types.AOIReport, error)
	GetDetails(ctx context.Context, id string) (types.ReportDetails, error)
	KPISummary(ctx context.Context) (types.KPISummary, error)
	TopDefects(ctx context.Context, since time.Time, limit int) ([]types.DefectTally, error)
}

// CreateReportRequest is the validated input for a new AOI report.
type CreateReportRequest struct {
	JobNumber       string             `json:"job_number"`
	AssemblyNumber  string             `json:"assembly_number"`
	RevisionCode    string             `json:"revision_code,omitempty"`
	OperationName   string             `json:"operation_name"`
	LineName        string             `json:"line_name"`
	OperatorBadge   string             `json:"operator_badge,omitempty"`
	BoardsInspected int                `json:"boards_inspected"`
	BoardsNG        int                `json:"boards_ng"`
	Notes           string             `json:"notes,omitempty"`
	Defects         []ReportDefectItem `json:"defects,omitempty"`
}

// ReportDefectItem is one defect line in a report submission.
type ReportDefectItem struct {
	DefectCode string `json:"defect_code"`
	Count      int    `json:"count"`
}

// ReportService encapsulates AOI report use-cases.
type ReportService struct {
	repo   ReportRepository
	bus    EventEmitter
	logger *slog.Logger
}

func NewReportService(repo ReportRepository, bus EventEmitter, logger *slog.Logger) *ReportService {
	return &ReportService{repo: repo, bus: bus, logger: logger}
}

// Create validates and persists a report together with its defect items.
func (s *ReportService) Create(ctx context.Context, req CreateReportRequest) (types.AOIReport, error) {
	if err := validateReport(&req); err != nil {
		return types.AOIReport{}, err
	}

	newReport := store.NewReport{
		JobNumber:       req.JobNumber,
		AssemblyNumber:  req.AssemblyNumber,
		RevisionCode:    req.RevisionCode,
		OperationName:   req.OperationName,
		LineName:        req.LineName,
		OperatorBadge:   req.OperatorBadge,
		BoardsInspected: req.BoardsInspected,
		BoardsNG:        req.BoardsNG,
		Notes:           req.Notes,
	}
	for _, item := range req.Defects {
		newReport.Defects = append(newReport.Defects, types.ReportDefect{
			DefectCode: item.DefectCode,
			Count:      item.Count,
		})
	}

	report, err := s.repo.Create(ctx, newReport)
	if err != nil {
		if errors.Is(err, store.ErrUnknownDefectCode) {
			return types.AOIReport{}, fmt.Errorf("%w: unknown defect code", ErrValidation)
		}
		return types.AOIReport{}, err
	}

	if s.bus != nil {
		payload := struct {
			ReportID        string `json:"report_id"`
			JobNumber       string `json:"job_number"`
			BoardsInspected int    `json:"boards_inspected"`
			BoardsNG        int    `json:"boards_ng"`
		}{
			ReportID:        report.ID,
			JobNumber:       req.JobNumber,
			BoardsInspected: report.BoardsInspected,
			BoardsNG:        report.BoardsNG,
		}
		if err := s.bus.Emit(ctx, events.TypeReportCreated, payload); err != nil {
			s.logger.Warn("failed to publish report event", "report_id", report.ID, "error", err)
		}
	}

	return report, nil
}

func (s *ReportService) GetDetails(ctx context.Context, id string) (types.ReportDetails, error) {
	return s.repo.GetDetails(ctx, id)
}

func (s *ReportService) KPISummary(ctx context.Context) (types.KPISummary, error) {
	return s.repo.KPISummary(ctx)
}

func (s *ReportService) TopDefects(ctx context.Context, since time.Time, limit int) ([]types.DefectTally, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.TopDefects(ctx, since, limit)
}

func validateReport(req *CreateReportRequest) error {
	req.JobNumber = strings.TrimSpace(req.JobNumber)
	req.AssemblyNumber = strings.TrimSpace(req.AssemblyNumber)
	req.RevisionCode = strings.TrimSpace(req.RevisionCode)
	req.OperationName = strings.TrimSpace(req.OperationName)
	req.LineName = strings.TrimSpace(req.LineName)
	req.OperatorBadge = strings.TrimSpace(req.OperatorBadge)

	if req.JobNumber == "" || req.AssemblyNumber == "" {
		return fmt.Errorf("%w: job and assembly numbers are required", ErrValidation)
	}
	if req.OperationName == "" || req.LineName == "" {
		return fmt.Errorf("%w: operation and line are required", ErrValidation)
	}
	if req.BoardsInspected < 0 {
		return fmt.Errorf("%w: boards_inspected must be >= 0", ErrValidation)
	}
	if req.BoardsNG < 0 {
		return fmt.Errorf("%w: boards_ng must be >= 0", ErrValidation)
	}
	if req.BoardsNG > req.BoardsInspected {
		return fmt.Errorf("%w: boards_ng cannot exceed boards_inspected", ErrValidation)
	}

	for i, item := range req.Defects {
		if strings.TrimSpace(item.DefectCode) == "" {
			return fmt.Errorf("%w: defects[%d].defect_code is required", ErrValidation, i)
		}
		if item.Count < 0 {
			return fmt.Errorf("%w: defects[%d].count must be >= 0", ErrValidation, i)
		}
	}
	return nil
}
