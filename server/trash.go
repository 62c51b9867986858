package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleListTrash(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Tasks.Trash())
}

func (s *Server) handleRestoreTrash(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return badRequest(c, "invalid index")
	}
	t, err := s.app.Tasks.RestoreFromTrash(c.Request().Context(), index)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleClearTrash(c echo.Context) error {
	if err := s.app.ClearTrash(c.Request().Context()); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
