package services

import (
	"context"
	"log/slog"

	"github.com/floorreports/apiserver/internal/events"
	"github.com/floorreports/apiserver/types"
)

// DefectFetcher pulls the full defect dictionary from the remote source of
// truth.
type DefectFetcher interface {
	FetchDefectCodes(ctx context.Context) ([]types.DefectCode, error)
}

// DefectCodeRepository defines persistence operations for the local cache.
type DefectCodeRepository interface {
	List(ctx context.Context) ([]types.DefectCode, error)
	Get(ctx context.Context, code string) (types.DefectCode, error)
	Count(ctx context.Context) (int, error)
	ReplaceAll(ctx context.Context, codes []types.DefectCode) error
}

// EventEmitter publishes application events.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, payload any) error
}

// SyncService mirrors the remote defect dictionary into the local cache.
// On success the cache is replaced wholesale; on any failure the cache is
// left untouched. There is no retry policy and no partial application.
type SyncService struct {
	fetcher DefectFetcher
	repo    DefectCodeRepository
	bus     EventEmitter
	logger  *slog.Logger
}

func NewSyncService(fetcher DefectFetcher, repo DefectCodeRepository, bus EventEmitter, logger *slog.Logger) *SyncService {
	return &SyncService{
		fetcher: fetcher,
		repo:    repo,
		bus:     bus,
		logger:  logger,
	}
}

// Sync fetches the remote dictionary and replaces the local cache. It
// returns the number of active entries after a successful sync.
func (s *SyncService) Sync(ctx context.Context) (int, error) {
	codes, err := s.fetcher.FetchDefectCodes(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.repo.ReplaceAll(ctx, codes); err != nil {
		return 0, err
	}

	s.logger.Info("defect codes synchronized", "entries", len(codes))

	if s.bus != nil {
		payload := struct {
			Entries int `json:"entries"`
		}{Entries: len(codes)}
		if err := s.bus.Emit(ctx, events.TypeDefectCodeSynced, payload); err != nil {
			s.logger.Warn("failed to publish sync event", "error", err)
		}
	}

	return len(codes), nil
}

// Codes returns the current contents of the local cache.
func (s *SyncService) Codes(ctx context.Context) ([]types.DefectCode, error) {
	return s.repo.List(ctx)
}
