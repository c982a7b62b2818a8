package server

import (
	"errors"
	"net/http"
	"time"

	"playlist-service/internal/auth"
	"playlist-service/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func handleAuthError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrInvalidPassword), errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cookie.TTL.Seconds()),
		Expires:  time.Now().Add(s.cookie.TTL),
	})
}

func (s *Server) Register(c echo.Context) error {
	var req domain.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	session, err := s.auth.Register(c.Request().Context(), req)
	if err != nil {
		statusCode, errorMsg := handleAuthError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).Error("Failed to register user")
		}
		return c.JSON(statusCode, map[string]string{
			"error": errorMsg,
		})
	}

	s.setSessionCookie(c, session.Token)
	return c.JSON(http.StatusCreated, session.User)
}

func (s *Server) Login(c echo.Context) error {
	var req domain.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	session, err := s.auth.Login(c.Request().Context(), req)
	if err != nil {
		statusCode, errorMsg := handleAuthError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).Error("Failed to log in")
		}
		return c.JSON(statusCode, map[string]string{
			"error": errorMsg,
		})
	}

	s.setSessionCookie(c, session.Token)
	return c.JSON(http.StatusOK, session.User)
}

func (s *Server) Me(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Not authenticated",
		})
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out",
	})
}
