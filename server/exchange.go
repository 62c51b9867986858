package server

import (
	"io"
	"net/http"

	"github.com/existflow/taskr/internal/app"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetView(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.View())
}

func (s *Server) handleUpdateView(c echo.Context) error {
	req := s.app.View()
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	v, err := s.app.UpdateView(c.Request().Context(), func(v *app.ViewState) { *v = req })
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handleExport(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Tasks.Export())
}

func (s *Server) handleImport(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest(c, "invalid request")
	}
	added, err := s.app.Tasks.Import(c.Request().Context(), data)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, map[string]int{"imported": len(added)})
}
