package service

import (
	"context"
	"time"

	"playlist-service/internal/domain"
	"playlist-service/internal/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 3 * time.Second

type LogAppender interface {
	Append(ctx context.Context, rec *domain.LogRecord) error
}

type ActionPublisher interface {
	Publish(ctx context.Context, rec domain.LogRecord) error
}

// ActionLogger writes one log record per user action. Recording never fails
// the caller's operation: store and publish errors are logged and dropped.
type ActionLogger struct {
	store     LogAppender
	publisher ActionPublisher
	now       func() time.Time
}

// NewActionLogger returns a logger that appends to store and, when publisher
// is non-nil, forwards every stored record to it.
func NewActionLogger(store LogAppender, publisher ActionPublisher) *ActionLogger {
	return &ActionLogger{store: store, publisher: publisher, now: time.Now}
}

func (l *ActionLogger) Record(ctx context.Context, actorID *string, action domain.ActionKind, entity domain.EntityKind, entityID, detail string) {
	if l == nil || l.store == nil {
		return
	}

	rec := domain.LogRecord{
		ID:         uuid.New().String(),
		Timestamp:  l.now().UTC(),
		ActorID:    actorID,
		ActionKind: action,
		EntityKind: entity,
		EntityID:   entityID,
		Detail:     detail,
	}

	if err := l.store.Append(ctx, &rec); err != nil {
		metrics.ActionLogAppendsTotal.WithLabelValues(string(action), string(entity), "error").Inc()
		log.WithError(err).WithFields(log.Fields{
			"action_type": action,
			"entity_type": entity,
			"entity_id":   entityID,
		}).Error("Failed to record action")
		return
	}
	metrics.ActionLogAppendsTotal.WithLabelValues(string(action), string(entity), "ok").Inc()

	if l.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := l.publisher.Publish(pubCtx, rec); err != nil {
		log.WithError(err).WithField("log_id", rec.ID).Warn("Failed to publish action")
	}
}
