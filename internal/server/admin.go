package server

import (
	"net/http"

	"playlist-service/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Logs serves the admin log view. Depending on the parameters it answers
// with the enum metadata, a {"count": n} object or a list of records.
func (s *Server) Logs(c echo.Context) error {
	q := domain.ParseLogQuery(c.QueryParams())

	res, err := s.logs.Query(c.Request().Context(), q)
	if err != nil {
		log.WithError(err).WithField("query", c.QueryString()).Error("Failed to fetch logs")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An error occurred while fetching logs",
		})
	}

	switch {
	case res.Metadata != nil:
		return c.JSON(http.StatusOK, res.Metadata)
	case res.Count != nil:
		return c.JSON(http.StatusOK, map[string]int{"count": *res.Count})
	default:
		return c.JSON(http.StatusOK, res.Records)
	}
}

func (s *Server) DangerousUsers(c echo.Context) error {
	users, err := s.detector.DetectDangerousUsers(c.Request().Context())
	if err != nil {
		log.WithError(err).Error("Failed to detect dangerous users")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An error occurred while fetching dangerous users",
		})
	}
	return c.JSON(http.StatusOK, users)
}
