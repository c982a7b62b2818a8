package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"playlist-service/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

var logColumns = []string{
	"l.id", "l.occurred_at", "l.user_id", "l.action_type", "l.entity_type", "l.entity_id", "l.details",
}

type logRow struct {
	ID         string         `db:"id"`
	OccurredAt time.Time      `db:"occurred_at"`
	UserID     sql.NullString `db:"user_id"`
	ActionType string         `db:"action_type"`
	EntityType string         `db:"entity_type"`
	EntityID   string         `db:"entity_id"`
	Details    sql.NullString `db:"details"`
	ActorName  sql.NullString `db:"actor_name"`
	ActorEmail sql.NullString `db:"actor_email"`
	ActorRole  sql.NullString `db:"actor_role"`
}

func (r logRow) toDomain() domain.LogRecord {
	rec := domain.LogRecord{
		ID:         r.ID,
		Timestamp:  r.OccurredAt.UTC(),
		ActionKind: domain.ActionKind(r.ActionType),
		EntityKind: domain.EntityKind(r.EntityType),
		EntityID:   r.EntityID,
		Detail:     r.Details.String,
	}
	if r.UserID.Valid {
		id := r.UserID.String
		rec.ActorID = &id
		// The join finds nothing once the user is gone.
		if r.ActorEmail.Valid {
			rec.Actor = &domain.ActorSnapshot{
				ID:    id,
				Name:  r.ActorName.String,
				Email: r.ActorEmail.String,
				Role:  domain.Role(r.ActorRole.String),
			}
		}
	}
	return rec
}

func toRecords(rows []logRow) []domain.LogRecord {
	records := make([]domain.LogRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records
}

// sqlLogRepository stores the action log. Every read is a single statement,
// so under PostgreSQL's READ COMMITTED each call sees the rows committed
// before it started; records appended while it runs may or may not show up.
type sqlLogRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewLogRepository(db *sqlx.DB) *sqlLogRepository {
	return &sqlLogRepository{db: db, sb: statementBuilder(db)}
}

func (r *sqlLogRepository) Append(ctx context.Context, rec *domain.LogRecord) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now()
	}

	var userID, details sql.NullString
	if rec.ActorID != nil {
		userID = sql.NullString{String: *rec.ActorID, Valid: true}
	}
	if rec.Detail != "" {
		details = sql.NullString{String: rec.Detail, Valid: true}
	}

	query := r.db.Rebind(`
		INSERT INTO action_logs (id, occurred_at, user_id, action_type, entity_type, entity_id, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Timestamp.UTC(),
		userID,
		string(rec.ActionKind),
		string(rec.EntityKind),
		rec.EntityID,
		details,
	)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"action_type": rec.ActionKind,
			"entity_type": rec.EntityKind,
			"entity_id":   rec.EntityID,
		}).Error("Failed to append log record")
		return fmt.Errorf("failed to append log record: %w", err)
	}
	return nil
}

// ListSince returns every record at or after since, oldest first, with the
// actor snapshot read in the same statement.
func (r *sqlLogRepository) ListSince(ctx context.Context, since time.Time) ([]domain.LogRecord, error) {
	b := r.selectWithActor().
		Where(sq.GtOrEq{"l.occurred_at": since.UTC()}).
		OrderBy("l.occurred_at ASC", "l.id ASC")

	return r.selectRecords(ctx, b, "failed to list recent logs")
}

func (r *sqlLogRepository) List(ctx context.Context, filter domain.LogFilter, order domain.LogSort, page domain.Page) ([]domain.LogRecord, error) {
	b := applyLogFilter(r.selectWithActor(), filter).
		OrderBy(logOrder(order)...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))

	return r.selectRecords(ctx, b, "failed to list logs")
}

func (r *sqlLogRepository) ListByActor(ctx context.Context, actorID string, page domain.Page) ([]domain.LogRecord, error) {
	b := r.selectWithActor().
		Where(sq.Eq{"l.user_id": actorID}).
		OrderBy("l.occurred_at DESC", "l.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))

	return r.selectRecords(ctx, b, "failed to list user logs")
}

func (r *sqlLogRepository) ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string, limit int) ([]domain.LogRecord, error) {
	b := r.selectWithActor().
		Where(sq.Eq{"l.entity_type": string(kind), "l.entity_id": entityID}).
		OrderBy("l.occurred_at DESC", "l.id DESC").
		Limit(uint64(limit))

	return r.selectRecords(ctx, b, "failed to list entity logs")
}

func (r *sqlLogRepository) Count(ctx context.Context, filter domain.LogFilter) (int, error) {
	b := applyLogFilter(r.sb.Select("COUNT(*)").From("action_logs l"), filter)
	return r.count(ctx, b, "failed to count logs")
}

func (r *sqlLogRepository) CountByActor(ctx context.Context, actorID string) (int, error) {
	b := r.sb.Select("COUNT(*)").From("action_logs l").Where(sq.Eq{"l.user_id": actorID})
	return r.count(ctx, b, "failed to count user logs")
}

func (r *sqlLogRepository) CountByEntity(ctx context.Context, kind domain.EntityKind, entityID string) (int, error) {
	b := r.sb.Select("COUNT(*)").From("action_logs l").
		Where(sq.Eq{"l.entity_type": string(kind), "l.entity_id": entityID})
	return r.count(ctx, b, "failed to count entity logs")
}

func (r *sqlLogRepository) selectWithActor() sq.SelectBuilder {
	cols := append(append([]string{}, logColumns...),
		"u.name AS actor_name", "u.email AS actor_email", "u.role AS actor_role")
	return r.sb.Select(cols...).
		From("action_logs l").
		LeftJoin("users u ON u.id = l.user_id")
}

func (r *sqlLogRepository) selectRecords(ctx context.Context, b sq.SelectBuilder, msg string) ([]domain.LogRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.WithError(err).Error(msg)
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	return toRecords(rows), nil
}

func (r *sqlLogRepository) count(ctx context.Context, b sq.SelectBuilder, msg string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		log.WithError(err).Error(msg)
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	return n, nil
}

func applyLogFilter(b sq.SelectBuilder, filter domain.LogFilter) sq.SelectBuilder {
	if filter.EntityKind != nil {
		b = b.Where(sq.Eq{"l.entity_type": string(*filter.EntityKind)})
	}
	if filter.ActionKind != nil {
		b = b.Where(sq.Eq{"l.action_type": string(*filter.ActionKind)})
	}
	return b
}

// logOrder builds the ORDER BY terms. The id tie-breaker follows the main
// direction so that an ascending listing is exactly the reverse of the
// descending one and pages never overlap.
func logOrder(order domain.LogSort) []string {
	dir := "DESC"
	if order.Direction == domain.SortAsc {
		dir = "ASC"
	}

	var col string
	switch order.Field {
	case domain.SortByUser:
		if order.UserMode == domain.UserSortByName {
			col = "COALESCE(NULLIF(u.name, ''), u.email)"
		} else {
			col = "l.user_id"
		}
	case domain.SortByActionType:
		col = "l.action_type"
	case domain.SortByEntityType:
		col = "l.entity_type"
	default:
		col = "l.occurred_at"
	}

	return []string{col + " " + dir, "l.id " + dir}
}
