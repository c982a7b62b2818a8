package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"playlist-service/internal/domain"
	"playlist-service/internal/metrics"

	log "github.com/sirupsen/logrus"
)

const unknownActor = "Unknown"

// LogReader returns the records at or after since together with their actor
// snapshots. Records of deleted users carry a nil snapshot.
type LogReader interface {
	ListSince(ctx context.Context, since time.Time) ([]domain.LogRecord, error)
}

// Burst is an actor whose records contain a run of burstSize records inside
// the window. Span is the width of the earliest such run.
type Burst struct {
	ActorID      string
	RequestCount int
	Span         time.Duration
}

// FindBursts groups records by actor, skipping anonymous ones, and slides a
// window of exactly burstSize consecutive records over each actor's
// timeline. An actor is reported once, at the first position whose span is
// at most window. Bursts come back in the order of each actor's first
// record; records with equal timestamps keep their input order.
func FindBursts(records []domain.LogRecord, burstSize int, window time.Duration) []Burst {
	if burstSize < 1 || len(records) == 0 {
		return nil
	}

	sorted := make([]domain.LogRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var order []string
	timelines := make(map[string][]time.Time)
	for _, r := range sorted {
		if r.ActorID == nil {
			continue
		}
		id := *r.ActorID
		if _, seen := timelines[id]; !seen {
			order = append(order, id)
		}
		timelines[id] = append(timelines[id], r.Timestamp)
	}

	var bursts []Burst
	for _, id := range order {
		ts := timelines[id]
		if len(ts) < burstSize {
			continue
		}
		for i := 0; i+burstSize-1 < len(ts); i++ {
			span := ts[i+burstSize-1].Sub(ts[i])
			if span <= window {
				bursts = append(bursts, Burst{ActorID: id, RequestCount: len(ts), Span: span})
				break
			}
		}
	}
	return bursts
}

type DetectorService struct {
	logs   LogReader
	params domain.DetectorParams
	now    func() time.Time
}

func NewDetectorService(logs LogReader, params domain.DetectorParams) *DetectorService {
	return &DetectorService{
		logs:   logs,
		params: params,
		now:    time.Now,
	}
}

func (s *DetectorService) Params() domain.DetectorParams {
	return s.params
}

// DetectDangerousUsers runs the detector with the configured parameters.
func (s *DetectorService) DetectDangerousUsers(ctx context.Context) ([]domain.DetectionResult, error) {
	return s.Detect(ctx, s.params)
}

// Detect reads the records of the last params.ScanRange in one query and
// reports every actor with a burst. No further I/O follows the read; a read
// failure fails the whole run.
func (s *DetectorService) Detect(ctx context.Context, params domain.DetectorParams) ([]domain.DetectionResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	results, err := s.detect(ctx, params)
	metrics.DetectorRunDurationSeconds.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.DetectorRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.DetectorRunsTotal.WithLabelValues("ok").Inc()
	metrics.DetectorFlaggedActors.Set(float64(len(results)))
	return results, nil
}

func (s *DetectorService) detect(ctx context.Context, params domain.DetectorParams) ([]domain.DetectionResult, error) {
	since := s.now().UTC().Add(-params.ScanRange)

	records, err := s.logs.ListSince(ctx, since)
	if err != nil {
		log.WithError(err).Error("Failed to read recent logs for detection")
		return nil, fmt.Errorf("failed to read recent logs: %w", err)
	}

	actors := make(map[string]*domain.ActorSnapshot)
	for _, r := range records {
		if r.ActorID == nil || r.Actor == nil {
			continue
		}
		if _, ok := actors[*r.ActorID]; !ok {
			actors[*r.ActorID] = r.Actor
		}
	}

	bursts := FindBursts(records, params.BurstSize, params.Window)
	results := make([]domain.DetectionResult, 0, len(bursts))
	for _, b := range bursts {
		results = append(results, newDetectionResult(b, actors[b.ActorID]))
	}

	if len(results) > 0 {
		log.WithFields(log.Fields{
			"flagged":    len(results),
			"scanned":    len(records),
			"burst_size": params.BurstSize,
			"window":     params.Window,
		}).Warn("Dangerous users detected")
	}
	return results, nil
}

func newDetectionResult(b Burst, actor *domain.ActorSnapshot) domain.DetectionResult {
	res := domain.DetectionResult{
		UserID:           b.ActorID,
		Username:         actor.DisplayName(),
		Email:            unknownActor,
		RequestCount:     b.RequestCount,
		TimeframeSeconds: int64(math.Round(b.Span.Seconds())),
		Role:             unknownActor,
	}
	if actor != nil {
		if actor.Email != "" {
			res.Email = actor.Email
		}
		if actor.Role != "" {
			res.Role = string(actor.Role)
		}
	}
	return res
}
