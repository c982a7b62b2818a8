package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"playlist-service/internal/auth"
	"playlist-service/internal/domain"
	"playlist-service/internal/metrics"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const userContextKey = "user"

// currentUser returns the signed-in user, or nil for anonymous requests.
func currentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userContextKey).(*domain.User)
	return u
}

func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Identity attaches the session's user to the context. Requests without a
// valid session continue anonymously.
func (s *Server) Identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := sessionToken(c)
		if token == "" {
			return next(c)
		}

		user, err := s.auth.Authenticate(c.Request().Context(), token)
		switch {
		case err == nil:
			c.Set(userContextKey, user)
		case errors.Is(err, domain.ErrUnauthenticated):
			log.WithField("path", c.Path()).Debug("Ignoring invalid session token")
		default:
			log.WithError(err).Error("Failed to authenticate request")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "internal server error",
			})
		}
		return next(c)
	}
}

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentUser(c) == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Authentication required",
			})
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		if user == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Authentication required",
			})
		}
		if !user.IsAdmin() {
			log.WithFields(log.Fields{
				"user_id": user.ID,
				"path":    c.Path(),
			}).Warn("Admin access denied")
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Admin access required",
			})
		}
		return next(c)
	}
}

// RequestLogger writes one log entry per request and records the request
// metrics under the matched route.
func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		latency := time.Since(start)

		req := c.Request()
		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestTotal.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(req.Method, route).Observe(latency.Seconds())

		entry := log.WithFields(log.Fields{
			"method":  req.Method,
			"path":    req.URL.Path,
			"status":  status,
			"latency": latency.String(),
		})
		if user := currentUser(c); user != nil {
			entry = entry.WithField("user_id", user.ID)
		}
		if status >= http.StatusInternalServerError {
			entry.Warn("Request failed")
		} else {
			entry.Debug("Request handled")
		}
		return nil
	}
}
