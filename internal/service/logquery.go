package service

import (
	"context"
	"fmt"

	"playlist-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

type LogStore interface {
	List(ctx context.Context, filter domain.LogFilter, order domain.LogSort, page domain.Page) ([]domain.LogRecord, error)
	ListByActor(ctx context.Context, actorID string, page domain.Page) ([]domain.LogRecord, error)
	ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string, limit int) ([]domain.LogRecord, error)
	Count(ctx context.Context, filter domain.LogFilter) (int, error)
	CountByActor(ctx context.Context, actorID string) (int, error)
	CountByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int, error)
}

// LogQueryResult carries exactly one of the three answers a log query can
// produce.
type LogQueryResult struct {
	Metadata *domain.LogMetadata
	Count    *int
	Records  []domain.LogRecord
}

type LogQueryService struct {
	store    LogStore
	userSort domain.UserSortMode
}

// NewLogQueryService returns a query service whose "user" sort orders by
// userSort.
func NewLogQueryService(store LogStore, userSort domain.UserSortMode) *LogQueryService {
	return &LogQueryService{store: store, userSort: userSort}
}

func (s *LogQueryService) ListAll(ctx context.Context, filter domain.LogFilter, order domain.LogSort, page domain.Page) ([]domain.LogRecord, error) {
	order.UserMode = s.userSort
	records, err := s.store.List(ctx, filter, order, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return records, nil
}

func (s *LogQueryService) ListByActor(ctx context.Context, actorID string, page domain.Page) ([]domain.LogRecord, error) {
	records, err := s.store.ListByActor(ctx, actorID, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list user logs: %w", err)
	}
	return records, nil
}

func (s *LogQueryService) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string, limit int) ([]domain.LogRecord, error) {
	page := domain.Page{Limit: limit}.Normalize()
	records, err := s.store.ListByEntity(ctx, kind, entityID, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity logs: %w", err)
	}
	return records, nil
}

func (s *LogQueryService) Count(ctx context.Context, filter domain.LogFilter) (int, error) {
	n, err := s.store.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return n, nil
}

func (s *LogQueryService) CountByActor(ctx context.Context, actorID string) (int, error) {
	n, err := s.store.CountByActor(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count user logs: %w", err)
	}
	return n, nil
}

func (s *LogQueryService) CountByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int, error) {
	n, err := s.store.CountByEntity(ctx, kind, entityID)
	if err != nil {
		return 0, fmt.Errorf("failed to count entity logs: %w", err)
	}
	return n, nil
}

func (s *LogQueryService) Metadata() domain.LogMetadata {
	return domain.NewLogMetadata()
}

// Query answers an admin log request. Metadata wins over counting, counting
// over listing; both count and list pick their scope as entity, then actor,
// then the filtered log as a whole.
func (s *LogQueryService) Query(ctx context.Context, q domain.LogQuery) (LogQueryResult, error) {
	if q.Metadata {
		m := s.Metadata()
		return LogQueryResult{Metadata: &m}, nil
	}

	if q.CountOnly {
		var (
			n   int
			err error
		)
		switch {
		case q.EntityScoped():
			n, err = s.CountByEntity(ctx, *q.EntityKind, q.EntityID)
		case q.UserID != "":
			n, err = s.CountByActor(ctx, q.UserID)
		default:
			n, err = s.Count(ctx, q.Filter())
		}
		if err != nil {
			log.WithError(err).Error("Failed to count logs")
			return LogQueryResult{}, err
		}
		return LogQueryResult{Count: &n}, nil
	}

	var (
		records []domain.LogRecord
		err     error
	)
	switch {
	case q.EntityScoped():
		records, err = s.ListByEntity(ctx, *q.EntityKind, q.EntityID, q.Page.Limit)
	case q.UserID != "":
		records, err = s.ListByActor(ctx, q.UserID, q.Page)
	default:
		records, err = s.ListAll(ctx, q.Filter(), q.Sort, q.Page)
	}
	if err != nil {
		log.WithError(err).Error("Failed to list logs")
		return LogQueryResult{}, err
	}
	if records == nil {
		records = []domain.LogRecord{}
	}
	return LogQueryResult{Records: records}, nil
}
