package server

import (
	"context"
	"net/http"
	"time"

	"playlist-service/internal/domain"
	"playlist-service/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type AuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*service.Session, error)
	Login(ctx context.Context, req domain.LoginRequest) (*service.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type PlaylistService interface {
	ListPlaylists(ctx context.Context, actor *domain.User, q domain.PlaylistQuery) (*domain.PlaylistPage, error)
	GetPlaylist(ctx context.Context, actor *domain.User, id string) (*domain.Playlist, error)
	CreatePlaylist(ctx context.Context, actor *domain.User, req domain.CreatePlaylistRequest) (*domain.Playlist, error)
	UpdatePlaylist(ctx context.Context, actor *domain.User, id string, req domain.UpdatePlaylistRequest) (*domain.Playlist, error)
	DeletePlaylist(ctx context.Context, actor *domain.User, id string) error
	ListSongs(ctx context.Context, actor *domain.User, playlistID string) ([]domain.Song, error)
	GetSong(ctx context.Context, actor *domain.User, playlistID, songID string) (*domain.Song, error)
	AddSong(ctx context.Context, actor *domain.User, playlistID string, in domain.SongInput) (*domain.Song, error)
	UpdateSong(ctx context.Context, actor *domain.User, playlistID, songID string, req domain.UpdateSongRequest) (*domain.Song, error)
	RemoveSong(ctx context.Context, actor *domain.User, playlistID, songID string) error
}

type LogQueryService interface {
	Query(ctx context.Context, q domain.LogQuery) (service.LogQueryResult, error)
}

type DangerousUserDetector interface {
	DetectDangerousUsers(ctx context.Context) ([]domain.DetectionResult, error)
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type Server struct {
	db        *sqlx.DB
	auth      AuthService
	playlists PlaylistService
	logs      LogQueryService
	detector  DangerousUserDetector
	cookie    CookieOptions
}

func NewServer(db *sqlx.DB, auth AuthService, playlists PlaylistService, logs LogQueryService, detector DangerousUserDetector, cookie CookieOptions) *Server {
	return &Server{
		db:        db,
		auth:      auth,
		playlists: playlists,
		logs:      logs,
		detector:  detector,
		cookie:    cookie,
	}
}

// NewEcho returns an Echo instance with the middleware stack and every route
// registered.
func (s *Server) NewEcho(allowOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(RequestLogger)

	s.RegisterRoutes(e)
	return e
}

func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", s.Identity)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.Register)
	authGroup.POST("/login", s.Login)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.Me)

	playlists := api.Group("/playlists")
	playlists.GET("", s.ListPlaylists)
	playlists.POST("", s.CreatePlaylist, RequireAuth)
	playlists.GET("/:id", s.GetPlaylist)
	playlists.PATCH("/:id", s.UpdatePlaylist, RequireAuth)
	playlists.DELETE("/:id", s.DeletePlaylist, RequireAuth)

	playlists.GET("/:id/songs", s.ListSongs)
	playlists.POST("/:id/songs", s.AddSong, RequireAuth)
	playlists.GET("/:id/songs/:songId", s.GetSong)
	playlists.PATCH("/:id/songs/:songId", s.UpdateSong, RequireAuth)
	playlists.DELETE("/:id/songs/:songId", s.RemoveSong, RequireAuth)

	admin := api.Group("/admin", RequireAdmin)
	admin.GET("/logs", s.Logs)
	admin.GET("/dangerous-users", s.DangerousUsers)
}

func (s *Server) HealthCheck(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		log.WithField("error", err).Error("Health check failed: database is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
