package server

import (
	"errors"
	"net/http"
	"strconv"

	"playlist-service/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func handlePlaylistError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPlaylistNotFound):
		return http.StatusNotFound, "Playlist not found"
	case errors.Is(err, domain.ErrSongNotFound):
		return http.StatusNotFound, "Song not found"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrPlaylistAccessDenied):
		return http.StatusForbidden, "You do not have permission to modify this playlist"
	case errors.Is(err, domain.ErrInvalidPlaylistName),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidCoverImage),
		errors.Is(err, domain.ErrInvalidSongTitle),
		errors.Is(err, domain.ErrInvalidSongArtist),
		errors.Is(err, domain.ErrInvalidSongDuration):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func playlistError(c echo.Context, err error, msg string) error {
	statusCode, errorMsg := handlePlaylistError(err)
	if statusCode == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"playlist_id": c.Param("id"),
			"song_id":     c.Param("songId"),
		}).Error(msg)
	}
	return c.JSON(statusCode, map[string]string{
		"error": errorMsg,
	})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{
		"error": "invalid request body",
	})
}

func (s *Server) ListPlaylists(c echo.Context) error {
	q := domain.PlaylistQuery{
		Filter: domain.ViewFilter{Query: c.QueryParam("query")},
		Sort:   domain.ParsePlaylistSort(c.QueryParam("sort")),
	}
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		q.Page.Number = p
	}
	if size, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil {
		q.Page.Size = size
	}

	page, err := s.playlists.ListPlaylists(c.Request().Context(), currentUser(c), q)
	if err != nil {
		return playlistError(c, err, "Failed to list playlists")
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) GetPlaylist(c echo.Context) error {
	p, err := s.playlists.GetPlaylist(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return playlistError(c, err, "Failed to get playlist")
	}
	return c.JSON(http.StatusOK, map[string]any{"playlist": p})
}

func (s *Server) CreatePlaylist(c echo.Context) error {
	var req domain.CreatePlaylistRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	p, err := s.playlists.CreatePlaylist(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return playlistError(c, err, "Failed to create playlist")
	}
	return c.JSON(http.StatusCreated, map[string]any{"playlist": p})
}

func (s *Server) UpdatePlaylist(c echo.Context) error {
	var req domain.UpdatePlaylistRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	p, err := s.playlists.UpdatePlaylist(c.Request().Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		return playlistError(c, err, "Failed to update playlist")
	}
	return c.JSON(http.StatusOK, map[string]any{"playlist": p})
}

func (s *Server) DeletePlaylist(c echo.Context) error {
	if err := s.playlists.DeletePlaylist(c.Request().Context(), currentUser(c), c.Param("id")); err != nil {
		return playlistError(c, err, "Failed to delete playlist")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Playlist deleted successfully",
	})
}

func (s *Server) ListSongs(c echo.Context) error {
	songs, err := s.playlists.ListSongs(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return playlistError(c, err, "Failed to list songs")
	}
	return c.JSON(http.StatusOK, map[string]any{"songs": songs})
}

func (s *Server) GetSong(c echo.Context) error {
	song, err := s.playlists.GetSong(c.Request().Context(), currentUser(c), c.Param("id"), c.Param("songId"))
	if err != nil {
		return playlistError(c, err, "Failed to get song")
	}
	return c.JSON(http.StatusOK, map[string]any{"song": song})
}

func (s *Server) AddSong(c echo.Context) error {
	var req domain.SongInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	song, err := s.playlists.AddSong(c.Request().Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		return playlistError(c, err, "Failed to add song")
	}
	return c.JSON(http.StatusCreated, map[string]any{"song": song})
}

func (s *Server) UpdateSong(c echo.Context) error {
	var req domain.UpdateSongRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	song, err := s.playlists.UpdateSong(c.Request().Context(), currentUser(c), c.Param("id"), c.Param("songId"), req)
	if err != nil {
		return playlistError(c, err, "Failed to update song")
	}
	return c.JSON(http.StatusOK, map[string]any{"song": song})
}

func (s *Server) RemoveSong(c echo.Context) error {
	if err := s.playlists.RemoveSong(c.Request().Context(), currentUser(c), c.Param("id"), c.Param("songId")); err != nil {
		return playlistError(c, err, "Failed to remove song")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Song removed successfully",
	})
}
