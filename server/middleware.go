package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/history"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/task"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// authMiddleware checks the bearer token against the configured bcrypt hash
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.tokenHash == "" {
			return next(c)
		}

		// Get token from Authorization header
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
		}

		if bcrypt.CompareHashAndPassword([]byte(s.tokenHash), []byte(token)) != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		return next(c)
	}
}

// GenerateToken creates a random API token and its bcrypt hash
func GenerateToken() (token, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return token, string(h), nil
}

// fail maps domain errors to HTTP status codes
func (s *Server) fail(c echo.Context, err error) error {
	var verr *attachment.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Error(), "reason": string(verr.Reason)})
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, attachment.ErrNotFound),
		errors.Is(err, retention.ErrIndexOutOfRange):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, task.ErrNotDone):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, history.ErrEmptyValue),
		errors.Is(err, task.ErrImportParse),
		errors.Is(err, task.ErrAmbiguous):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, attachment.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	s.log.Error("Request failed", logger.F("uri", c.Request().RequestURI), logger.F("error", err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
