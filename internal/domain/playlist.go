package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	maxPlaylistNameLength = 200
	maxSongFieldLength    = 300

	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	ErrPlaylistNotFound     = errors.New("playlist not found")
	ErrSongNotFound         = errors.New("song not found")
	ErrInvalidPlaylistName  = errors.New("name is required")
	ErrInvalidDescription   = errors.New("description is required")
	ErrInvalidCoverImage    = errors.New("cover image must be a valid URL")
	ErrInvalidSongTitle     = errors.New("title is required")
	ErrInvalidSongArtist    = errors.New("artist is required")
	ErrInvalidSongDuration  = errors.New("duration must be positive")
	ErrPlaylistAccessDenied = errors.New("not allowed to modify this playlist")
)

type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     *string   `json:"userId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverImage  string    `json:"coverImage,omitempty"`
	SongCount   int       `json:"songCount"`
	Songs       []Song    `json:"songs"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CanModify reports whether u may change the playlist: owners and admins can.
func (p *Playlist) CanModify(u *User) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return p.OwnerID != nil && *p.OwnerID == u.ID
}

type Song struct {
	ID         string `json:"id"`
	PlaylistID string `json:"-"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	Duration   int    `json:"duration"`
}

type SongInput struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration *int   `json:"duration,omitempty"`
}

type CreatePlaylistRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CoverImage  string      `json:"coverImage,omitempty"`
	Songs       []SongInput `json:"songs"`
}

// UpdatePlaylistRequest leaves fields untouched when nil. A non-nil Songs
// replaces the playlist's song set.
type UpdatePlaylistRequest struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	CoverImage  *string      `json:"coverImage,omitempty"`
	Songs       *[]SongInput `json:"songs,omitempty"`
}

type UpdateSongRequest struct {
	Title    *string `json:"title,omitempty"`
	Artist   *string `json:"artist,omitempty"`
	Album    *string `json:"album,omitempty"`
	Duration *int    `json:"duration,omitempty"`
}

func ValidatePlaylistName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxPlaylistNameLength {
		return ErrInvalidPlaylistName
	}
	return nil
}

func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return ErrInvalidDescription
	}
	return nil
}

// ValidateCoverImage accepts an empty value or an absolute http(s) URL.
func ValidateCoverImage(cover string) error {
	if cover == "" {
		return nil
	}
	u, err := url.Parse(cover)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidCoverImage
	}
	return nil
}

func (s SongInput) Validate() error {
	if strings.TrimSpace(s.Title) == "" || len(s.Title) > maxSongFieldLength {
		return ErrInvalidSongTitle
	}
	if strings.TrimSpace(s.Artist) == "" || len(s.Artist) > maxSongFieldLength {
		return ErrInvalidSongArtist
	}
	if s.Duration != nil && *s.Duration <= 0 {
		return ErrInvalidSongDuration
	}
	return nil
}

func (s SongInput) ToSong() Song {
	song := Song{ID: s.ID, Title: s.Title, Artist: s.Artist, Album: s.Album}
	if s.Duration != nil {
		song.Duration = *s.Duration
	}
	return song
}

func (r CreatePlaylistRequest) Validate() error {
	if err := ValidatePlaylistName(r.Name); err != nil {
		return err
	}
	if err := ValidateDescription(r.Description); err != nil {
		return err
	}
	if err := ValidateCoverImage(r.CoverImage); err != nil {
		return err
	}
	for _, s := range r.Songs {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r UpdatePlaylistRequest) Validate() error {
	if r.Name != nil {
		if err := ValidatePlaylistName(*r.Name); err != nil {
			return err
		}
	}
	if r.Description != nil {
		if err := ValidateDescription(*r.Description); err != nil {
			return err
		}
	}
	if r.CoverImage != nil {
		if err := ValidateCoverImage(*r.CoverImage); err != nil {
			return err
		}
	}
	if r.Songs != nil {
		for _, s := range *r.Songs {
			if err := s.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r UpdateSongRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrInvalidSongTitle
	}
	if r.Artist != nil && strings.TrimSpace(*r.Artist) == "" {
		return ErrInvalidSongArtist
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return ErrInvalidSongDuration
	}
	return nil
}

// Apply copies the set fields onto s.
func (r UpdateSongRequest) Apply(s *Song) {
	if r.Title != nil {
		s.Title = *r.Title
	}
	if r.Artist != nil {
		s.Artist = *r.Artist
	}
	if r.Album != nil {
		s.Album = *r.Album
	}
	if r.Duration != nil {
		s.Duration = *r.Duration
	}
}

type PlaylistSort string

const (
	PlaylistSortNone          PlaylistSort = "none"
	PlaylistSortAlphabetical  PlaylistSort = "alphabetical"
	PlaylistSortSongCountDesc PlaylistSort = "numberOfSongsDesc"
	PlaylistSortSongCountAsc  PlaylistSort = "numberOfSongsAsc"
)

func ParsePlaylistSort(s string) PlaylistSort {
	switch PlaylistSort(s) {
	case PlaylistSortAlphabetical, PlaylistSortSongCountDesc, PlaylistSortSongCountAsc:
		return PlaylistSort(s)
	default:
		return PlaylistSortNone
	}
}

type ViewFilter struct {
	Query string
}

// PageRequest is one-based.
type PageRequest struct {
	Number int
	Size   int
}

func (p PageRequest) Normalize() PageRequest {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Number - 1) * p.Size
}

type PlaylistQuery struct {
	Filter ViewFilter
	Sort   PlaylistSort
	Page   PageRequest
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

func NewPagination(page PageRequest, total int) Pagination {
	pages := 0
	if page.Size > 0 {
		pages = (total + page.Size - 1) / page.Size
	}
	return Pagination{
		CurrentPage:  page.Number,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: page.Size,
	}
}

type PlaylistPage struct {
	Playlists  []Playlist `json:"playlists"`
	Pagination Pagination `json:"pagination"`
}
