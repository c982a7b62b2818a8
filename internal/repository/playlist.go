package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"playlist-service/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type playlistRow struct {
	ID          string         `db:"id"`
	UserID      sql.NullString `db:"user_id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	CoverImage  sql.NullString `db:"cover_image"`
	SongCount   int            `db:"song_count"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r playlistRow) toDomain() domain.Playlist {
	p := domain.Playlist{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CoverImage:  r.CoverImage.String,
		SongCount:   r.SongCount,
		Songs:       []domain.Song{},
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.UserID.Valid {
		owner := r.UserID.String
		p.OwnerID = &owner
	}
	return p
}

type songRow struct {
	ID         string         `db:"id"`
	PlaylistID string         `db:"playlist_id"`
	Title      string         `db:"title"`
	Artist     string         `db:"artist"`
	Album      sql.NullString `db:"album"`
	Duration   int            `db:"duration"`
}

func (r songRow) toDomain() domain.Song {
	return domain.Song{
		ID:         r.ID,
		PlaylistID: r.PlaylistID,
		Title:      r.Title,
		Artist:     r.Artist,
		Album:      r.Album.String,
		Duration:   r.Duration,
	}
}

const songColumns = "id, playlist_id, title, artist, album, duration"

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type sqlPlaylistRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewPlaylistRepository(db *sqlx.DB) *sqlPlaylistRepository {
	return &sqlPlaylistRepository{db: db, sb: statementBuilder(db)}
}

// List returns one page of playlists with their songs, ordered the same way
// domain.ApplyViewTransform orders an in-memory slice.
func (r *sqlPlaylistRepository) List(ctx context.Context, q domain.PlaylistQuery) ([]domain.Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	page := q.Page.Normalize()
	b := applySearch(r.sb.Select(
		"p.id", "p.user_id", "p.name", "p.description", "p.cover_image", "p.song_count", "p.created_at", "p.updated_at",
	).From("playlists p"), q.Filter).
		OrderBy(playlistOrder(q.Sort)...).
		Limit(uint64(page.Size)).
		Offset(uint64(page.Offset()))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build playlist query: %w", err)
	}

	var rows []playlistRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.WithError(err).Error("Failed to list playlists")
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	playlists := make([]domain.Playlist, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		playlists = append(playlists, row.toDomain())
		ids = append(ids, row.ID)
	}

	songs, err := r.songsFor(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if s, ok := songs[playlists[i].ID]; ok {
			playlists[i].Songs = s
		}
	}
	return playlists, nil
}

func (r *sqlPlaylistRepository) Count(ctx context.Context, filter domain.ViewFilter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := applySearch(r.sb.Select("COUNT(*)").From("playlists p"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build playlist count: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		log.WithError(err).Error("Failed to count playlists")
		return 0, fmt.Errorf("failed to count playlists: %w", err)
	}
	return n, nil
}

func (r *sqlPlaylistRepository) GetByID(ctx context.Context, id string) (*domain.Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := r.db.Rebind(`
		SELECT id, user_id, name, description, cover_image, song_count, created_at, updated_at
		FROM playlists
		WHERE id = ?
	`)

	var row playlistRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPlaylistNotFound
		}
		log.WithError(err).WithField("playlist_id", id).Error("Failed to get playlist")
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	p := row.toDomain()
	songs, err := r.songsFor(ctx, r.db, []string{id})
	if err != nil {
		return nil, err
	}
	if s, ok := songs[id]; ok {
		p.Songs = s
	}
	return &p, nil
}

// Create inserts the playlist and its songs in one transaction. IDs,
// timestamps and the song count are filled in on p.
func (r *sqlPlaylistRepository) Create(ctx context.Context, p *domain.Playlist) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p.ID = uuid.New().String()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	p.SongCount = len(p.Songs)

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var owner sql.NullString
		if p.OwnerID != nil {
			owner = sql.NullString{String: *p.OwnerID, Valid: true}
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO playlists (id, user_id, name, description, cover_image, song_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), p.ID, owner, p.Name, p.Description, nullString(p.CoverImage), p.SongCount, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert playlist: %w", err)
		}

		for i := range p.Songs {
			p.Songs[i].ID = uuid.New().String()
			p.Songs[i].PlaylistID = p.ID
			if err := insertSong(ctx, tx, &p.Songs[i], i, p.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("playlist_name", p.Name).Error("Failed to create playlist")
		return err
	}

	log.WithFields(log.Fields{
		"playlist_id": p.ID,
		"songs":       p.SongCount,
	}).Info("Playlist successfully created")
	return nil
}

// Update writes the playlist's scalar fields. When songs is non-nil the song
// set is reconciled to it: existing songs missing from songs are removed,
// songs whose id matches an existing song are updated in place and the rest
// are inserted with fresh ids.
func (r *sqlPlaylistRepository) Update(ctx context.Context, p *domain.Playlist, songs *[]domain.SongInput) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p.UpdatedAt = now()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE playlists
			SET name = ?, description = ?, cover_image = ?, updated_at = ?
			WHERE id = ?
		`), p.Name, p.Description, nullString(p.CoverImage), p.UpdatedAt, p.ID)
		if err != nil {
			return fmt.Errorf("failed to update playlist: %w", err)
		}
		if err := expectAffected(res, domain.ErrPlaylistNotFound); err != nil {
			return err
		}

		if songs == nil {
			return nil
		}
		return r.reconcileSongs(ctx, tx, p, *songs)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPlaylistNotFound) {
			log.WithError(err).WithField("playlist_id", p.ID).Error("Failed to update playlist")
		}
		return err
	}

	log.WithField("playlist_id", p.ID).Info("Playlist successfully updated")
	return nil
}

func (r *sqlPlaylistRepository) reconcileSongs(ctx context.Context, tx *sqlx.Tx, p *domain.Playlist, inputs []domain.SongInput) error {
	var existing []string
	if err := tx.SelectContext(ctx, &existing, tx.Rebind(`SELECT id FROM songs WHERE playlist_id = ?`), p.ID); err != nil {
		return fmt.Errorf("failed to load playlist songs: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	kept := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		song := in.ToSong()
		song.PlaylistID = p.ID

		if song.ID != "" && known[song.ID] && !kept[song.ID] {
			kept[song.ID] = true
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				UPDATE songs
				SET title = ?, artist = ?, album = ?, duration = ?, position = ?
				WHERE id = ? AND playlist_id = ?
			`), song.Title, song.Artist, nullString(song.Album), song.Duration, i, song.ID, p.ID)
			if err != nil {
				return fmt.Errorf("failed to update song: %w", err)
			}
			continue
		}

		song.ID = uuid.New().String()
		kept[song.ID] = true
		if err := insertSong(ctx, tx, &song, i, p.UpdatedAt); err != nil {
			return err
		}
	}

	for _, id := range existing {
		if kept[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM songs WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete song: %w", err)
		}
	}

	p.SongCount = len(inputs)
	_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE playlists SET song_count = ? WHERE id = ?`), p.SongCount, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update song count: %w", err)
	}
	return nil
}

func (r *sqlPlaylistRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM songs WHERE playlist_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete playlist songs: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM playlists WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete playlist: %w", err)
		}
		return expectAffected(res, domain.ErrPlaylistNotFound)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPlaylistNotFound) {
			log.WithError(err).WithField("playlist_id", id).Error("Failed to delete playlist")
		}
		return err
	}

	log.WithField("playlist_id", id).Info("Playlist successfully deleted")
	return nil
}

func (r *sqlPlaylistRepository) GetSong(ctx context.Context, playlistID, songID string) (*domain.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := r.db.Rebind(`SELECT ` + songColumns + ` FROM songs WHERE id = ? AND playlist_id = ?`)

	var row songRow
	if err := r.db.GetContext(ctx, &row, query, songID, playlistID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSongNotFound
		}
		log.WithError(err).WithField("song_id", songID).Error("Failed to get song")
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	song := row.toDomain()
	return &song, nil
}

// AddSong appends song to the end of the playlist.
func (r *sqlPlaylistRepository) AddSong(ctx context.Context, playlistID string, song *domain.Song) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	song.ID = uuid.New().String()
	song.PlaylistID = playlistID
	ts := now()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE playlists SET song_count = song_count + 1, updated_at = ? WHERE id = ?
		`), ts, playlistID)
		if err != nil {
			return fmt.Errorf("failed to update playlist: %w", err)
		}
		if err := expectAffected(res, domain.ErrPlaylistNotFound); err != nil {
			return err
		}

		var position int
		if err := tx.GetContext(ctx, &position, tx.Rebind(`
			SELECT COALESCE(MAX(position), -1) + 1 FROM songs WHERE playlist_id = ?
		`), playlistID); err != nil {
			return fmt.Errorf("failed to find song position: %w", err)
		}
		return insertSong(ctx, tx, song, position, ts)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPlaylistNotFound) {
			log.WithError(err).WithField("playlist_id", playlistID).Error("Failed to add song")
		}
		return err
	}

	log.WithFields(log.Fields{
		"playlist_id": playlistID,
		"song_id":     song.ID,
	}).Info("Song successfully added")
	return nil
}

func (r *sqlPlaylistRepository) UpdateSong(ctx context.Context, song *domain.Song) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE songs
			SET title = ?, artist = ?, album = ?, duration = ?
			WHERE id = ? AND playlist_id = ?
		`), song.Title, song.Artist, nullString(song.Album), song.Duration, song.ID, song.PlaylistID)
		if err != nil {
			return fmt.Errorf("failed to update song: %w", err)
		}
		if err := expectAffected(res, domain.ErrSongNotFound); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, song.PlaylistID, 0)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSongNotFound) {
			log.WithError(err).WithField("song_id", song.ID).Error("Failed to update song")
		}
		return err
	}
	return nil
}

func (r *sqlPlaylistRepository) DeleteSong(ctx context.Context, playlistID, songID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM songs WHERE id = ? AND playlist_id = ?`), songID, playlistID)
		if err != nil {
			return fmt.Errorf("failed to delete song: %w", err)
		}
		if err := expectAffected(res, domain.ErrSongNotFound); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, playlistID, -1)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSongNotFound) {
			log.WithError(err).WithField("song_id", songID).Error("Failed to delete song")
		}
		return err
	}

	log.WithFields(log.Fields{
		"playlist_id": playlistID,
		"song_id":     songID,
	}).Info("Song successfully deleted")
	return nil
}

// songsFor loads the songs of the given playlists keyed by playlist id, each
// list in playlist order.
func (r *sqlPlaylistRepository) songsFor(ctx context.Context, q sqlx.QueryerContext, playlistIDs []string) (map[string][]domain.Song, error) {
	out := make(map[string][]domain.Song, len(playlistIDs))
	if len(playlistIDs) == 0 {
		return out, nil
	}

	query, args, err := r.sb.Select(strings.Split(songColumns, ", ")...).
		From("songs").
		Where(sq.Eq{"playlist_id": playlistIDs}).
		OrderBy("playlist_id", "position ASC", "created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build song query: %w", err)
	}

	var rows []songRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		log.WithError(err).Error("Failed to load songs")
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}
	for _, row := range rows {
		out[row.PlaylistID] = append(out[row.PlaylistID], row.toDomain())
	}
	return out, nil
}

func insertSong(ctx context.Context, tx *sqlx.Tx, song *domain.Song, position int, createdAt time.Time) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO songs (id, playlist_id, title, artist, album, duration, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), song.ID, song.PlaylistID, song.Title, song.Artist, nullString(song.Album), song.Duration, position, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func touchPlaylist(ctx context.Context, tx *sqlx.Tx, playlistID string, countDelta int) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE playlists SET song_count = song_count + ?, updated_at = ? WHERE id = ?
	`), countDelta, now(), playlistID)
	if err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func applySearch(b sq.SelectBuilder, filter domain.ViewFilter) sq.SelectBuilder {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	if query == "" {
		return b
	}
	pattern := "%" + escapeLike(query) + "%"
	return b.Where(sq.Or{
		sq.Expr(`LOWER(p.name) LIKE ? ESCAPE '\'`, pattern),
		sq.Expr(`LOWER(p.description) LIKE ? ESCAPE '\'`, pattern),
	})
}

func playlistOrder(order domain.PlaylistSort) []string {
	switch order {
	case domain.PlaylistSortAlphabetical:
		return []string{"LOWER(p.name) ASC", "p.id ASC"}
	case domain.PlaylistSortSongCountDesc:
		return []string{"p.song_count DESC", "p.id ASC"}
	case domain.PlaylistSortSongCountAsc:
		return []string{"p.song_count ASC", "p.id ASC"}
	default:
		return []string{"p.updated_at DESC", "p.id ASC"}
	}
}
