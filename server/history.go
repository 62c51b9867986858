package server

import (
	"net/http"
	"strconv"

	"github.com/existflow/taskr/internal/history"
	"github.com/existflow/taskr/internal/model"
	"github.com/labstack/echo/v4"
)

func (s *Server) historyRepo(c echo.Context) (*history.Repository, bool) {
	kind := model.HistoryKind(c.Param("kind"))
	if !kind.Valid() {
		return nil, false
	}
	return s.app.History(kind), true
}

func indexParam(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("index"))
}

func (s *Server) handleListHistory(c echo.Context) error {
	repo, ok := s.historyRepo(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown history"})
	}
	return c.JSON(http.StatusOK, repo.Values())
}

type historyValue struct {
	Value string `json:"value"`
}

func (s *Server) handleRecordHistory(c echo.Context) error {
	repo, ok := s.historyRepo(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown history"})
	}
	var req historyValue
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := repo.Record(c.Request().Context(), req.Value); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, repo.Values())
}

func (s *Server) handleEditHistory(c echo.Context) error {
	repo, ok := s.historyRepo(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown history"})
	}
	index, err := indexParam(c)
	if err != nil {
		return badRequest(c, "invalid index")
	}
	var req historyValue
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := repo.Edit(c.Request().Context(), index, req.Value); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, repo.Values())
}

type historyDeleteRequest struct {
	Indices []int `json:"indices"`
	All     bool  `json:"all"`
}

func (s *Server) handleDeleteHistory(c echo.Context) error {
	repo, ok := s.historyRepo(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown history"})
	}
	var req historyDeleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	ctx := c.Request().Context()
	var (
		n   int
		err error
	)
	if req.All {
		n, err = repo.DeleteAll(ctx)
	} else {
		n, err = repo.Delete(ctx, req.Indices...)
	}
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleHistoryTrash(c echo.Context) error {
	repo, ok := s.historyRepo(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown history"})
	}
	return c.JSON(http.StatusOK, repo.Trash())
}

func (s *Server) handleRestoreHistory(c echo.Context) error {
	repo, ok := s.historyRepo(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown history"})
	}
	index, err := indexParam(c)
	if err != nil {
		return badRequest(c, "invalid index")
	}
	value, err := repo.Restore(c.Request().Context(), index)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, historyValue{Value: value})
}
