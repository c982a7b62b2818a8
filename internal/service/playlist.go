package service

import (
	"context"
	"fmt"
	"strings"

	"playlist-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

type PlaylistRepository interface {
	List(ctx context.Context, q domain.PlaylistQuery) ([]domain.Playlist, error)
	Count(ctx context.Context, filter domain.ViewFilter) (int, error)
	GetByID(ctx context.Context, id string) (*domain.Playlist, error)
	Create(ctx context.Context, p *domain.Playlist) error
	Update(ctx context.Context, p *domain.Playlist, songs *[]domain.SongInput) error
	Delete(ctx context.Context, id string) error
	GetSong(ctx context.Context, playlistID, songID string) (*domain.Song, error)
	AddSong(ctx context.Context, playlistID string, song *domain.Song) error
	UpdateSong(ctx context.Context, song *domain.Song) error
	DeleteSong(ctx context.Context, playlistID, songID string) error
}

// PlaylistService is the playlist CRUD surface. Reads are open to anonymous
// callers; every mutation needs a signed-in owner or admin. Each call is
// recorded in the action log under the caller's id.
type PlaylistService struct {
	repo    PlaylistRepository
	actions *ActionLogger
}

func NewPlaylistService(repo PlaylistRepository, actions *ActionLogger) *PlaylistService {
	return &PlaylistService{repo: repo, actions: actions}
}

func (s *PlaylistService) ListPlaylists(ctx context.Context, actor *domain.User, q domain.PlaylistQuery) (*domain.PlaylistPage, error) {
	q.Page = q.Page.Normalize()

	total, err := s.repo.Count(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count playlists: %w", err)
	}
	playlists, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	detail := "Listed playlists"
	if q.Filter.Query != "" {
		detail = fmt.Sprintf("Searched playlists for %q", q.Filter.Query)
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionRead, domain.EntityPlaylist, domain.EntityIDAll, detail)

	return &domain.PlaylistPage{
		Playlists:  playlists,
		Pagination: domain.NewPagination(q.Page, total),
	}, nil
}

func (s *PlaylistService) GetPlaylist(ctx context.Context, actor *domain.User, id string) (*domain.Playlist, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionRead, domain.EntityPlaylist, p.ID, "")
	return p, nil
}

func (s *PlaylistService) CreatePlaylist(ctx context.Context, actor *domain.User, req domain.CreatePlaylistRequest) (*domain.Playlist, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &domain.Playlist{
		OwnerID:     actor.IDPtr(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Songs:       make([]domain.Song, 0, len(req.Songs)),
	}
	for _, in := range req.Songs {
		p.Songs = append(p.Songs, in.ToSong())
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	s.actions.Record(ctx, actor.IDPtr(), domain.ActionCreate, domain.EntityPlaylist, p.ID, fmt.Sprintf("Created playlist %q", p.Name))
	return p, nil
}

func (s *PlaylistService) UpdatePlaylist(ctx context.Context, actor *domain.User, id string, req domain.UpdatePlaylistRequest) (*domain.Playlist, error) {
	p, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.CoverImage != nil {
		p.CoverImage = *req.CoverImage
	}

	if err := s.repo.Update(ctx, p, req.Songs); err != nil {
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionUpdate, domain.EntityPlaylist, id, fmt.Sprintf("Updated playlist %q", updated.Name))
	return updated, nil
}

func (s *PlaylistService) DeletePlaylist(ctx context.Context, actor *domain.User, id string) error {
	p, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionDelete, domain.EntityPlaylist, id, fmt.Sprintf("Deleted playlist %q", p.Name))
	return nil
}

func (s *PlaylistService) ListSongs(ctx context.Context, actor *domain.User, playlistID string) ([]domain.Song, error) {
	p, err := s.repo.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionRead, domain.EntitySong, domain.EntityIDAll, fmt.Sprintf("Listed songs of playlist %s", p.ID))
	return p.Songs, nil
}

func (s *PlaylistService) GetSong(ctx context.Context, actor *domain.User, playlistID, songID string) (*domain.Song, error) {
	song, err := s.repo.GetSong(ctx, playlistID, songID)
	if err != nil {
		return nil, err
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionRead, domain.EntitySong, song.ID, "")
	return song, nil
}

func (s *PlaylistService) AddSong(ctx context.Context, actor *domain.User, playlistID string, in domain.SongInput) (*domain.Song, error) {
	if _, err := s.modifiable(ctx, actor, playlistID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	song := in.ToSong()
	if err := s.repo.AddSong(ctx, playlistID, &song); err != nil {
		return nil, fmt.Errorf("failed to add song: %w", err)
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionCreate, domain.EntitySong, song.ID, fmt.Sprintf("Added %q to playlist %s", song.Title, playlistID))
	return &song, nil
}

func (s *PlaylistService) UpdateSong(ctx context.Context, actor *domain.User, playlistID, songID string, req domain.UpdateSongRequest) (*domain.Song, error) {
	if _, err := s.modifiable(ctx, actor, playlistID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	song, err := s.repo.GetSong(ctx, playlistID, songID)
	if err != nil {
		return nil, err
	}
	req.Apply(song)
	if err := s.repo.UpdateSong(ctx, song); err != nil {
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionUpdate, domain.EntitySong, song.ID, fmt.Sprintf("Updated %q", song.Title))
	return song, nil
}

func (s *PlaylistService) RemoveSong(ctx context.Context, actor *domain.User, playlistID, songID string) error {
	if _, err := s.modifiable(ctx, actor, playlistID); err != nil {
		return err
	}
	if err := s.repo.DeleteSong(ctx, playlistID, songID); err != nil {
		return err
	}
	s.actions.Record(ctx, actor.IDPtr(), domain.ActionDelete, domain.EntitySong, songID, fmt.Sprintf("Removed from playlist %s", playlistID))
	return nil
}

// modifiable loads the playlist and checks that actor may change it.
func (s *PlaylistService) modifiable(ctx context.Context, actor *domain.User, id string) (*domain.Playlist, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanModify(actor) {
		log.WithFields(log.Fields{
			"user_id":     actor.ID,
			"playlist_id": id,
		}).Warn("Playlist modification denied")
		return nil, domain.ErrPlaylistAccessDenied
	}
	return p, nil
}
