package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/task"
	"github.com/labstack/echo/v4"
)

type taskRequest struct {
	Type    model.TaskType `json:"type" form:"type"`
	Project string         `json:"project" form:"project"`
	Todo    string         `json:"todo" form:"todo"`
	Note    string         `json:"note" form:"note"`
	DueDate string         `json:"dueDate" form:"dueDate"`
	DueTime string         `json:"dueTime" form:"dueTime"`
	Keep    []string       `json:"keep" form:"keep"`
}

func (r taskRequest) input() task.Input {
	return task.Input{Type: r.Type, Project: r.Project, Todo: r.Todo, Note: r.Note, DueDate: r.DueDate, DueTime: r.DueTime}
}

// uploads reads the "attachments" files of a multipart request
func uploads(c echo.Context) ([]attachment.Upload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	var files []attachment.Upload
	for _, fh := range form.File["attachments"] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, attachment.Upload{
			Name: fh.Filename,
			Type: fh.Header.Get(echo.HeaderContentType),
			Size: fh.Size,
			Data: data,
		})
	}
	return files, nil
}

// taskID resolves the :id path parameter, which may be a unique id prefix
func (s *Server) taskID(c echo.Context) (string, error) {
	t, err := s.app.Tasks.Resolve(c.Param("id"))
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *Server) handleListTasks(c echo.Context) error {
	view := s.app.View()
	q := view.ActiveQuery()
	if c.QueryParam("done") == "true" {
		q = view.DoneQuery()
	}
	if v := c.QueryParam("sort"); v != "" {
		q.Sort = task.ParseSortKey(v, q.Sort)
	}
	if c.QueryParams().Has("project") {
		q.Project = c.QueryParam("project")
	}
	switch c.QueryParam("type") {
	case string(model.TypeWork):
		q.Types = task.TypeFilter{Work: true}
	case string(model.TypePrivate):
		q.Types = task.TypeFilter{Private: true}
	case "all":
		q.Types = task.AllTypes
	}
	return c.JSON(http.StatusOK, task.NewSorter().Apply(s.app.Tasks.All(), q))
}

func (s *Server) handleGetTask(c echo.Context) error {
	t, err := s.app.Tasks.Resolve(c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	files, err := uploads(c)
	if err != nil {
		return badRequest(c, "invalid attachments")
	}
	t, err := s.app.CreateTask(c.Request().Context(), req.input(), files)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleEditTask(c echo.Context) error {
	current, err := s.app.Tasks.Resolve(c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	req := taskRequest{Keep: current.AttachmentIDs()}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	files, err := uploads(c)
	if err != nil {
		return badRequest(c, "invalid attachments")
	}
	t, err := s.app.Tasks.Edit(c.Request().Context(), current.ID, req.input(), req.Keep, files)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleCompleteTask(c echo.Context) error {
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	t, err := s.app.Tasks.Complete(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleRestoreTask(c echo.Context) error {
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	t, err := s.app.Tasks.Restore(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

type rescheduleRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleRescheduleTask(c echo.Context) error {
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	t, ok, err := s.app.Tasks.Reschedule(c.Request().Context(), id, req.Days)
	if err != nil {
		return s.fail(c, err)
	}
	if !ok {
		return s.fail(c, task.ErrNotFound)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

type duplicateResponse struct {
	Task      model.Task `json:"task"`
	Attempted int        `json:"attachmentsAttempted"`
	Produced  int        `json:"attachmentsProduced"`
}

func (s *Server) handleDuplicateTask(c echo.Context) error {
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	t, res, err := s.app.Tasks.Duplicate(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusCreated, duplicateResponse{Task: t, Attempted: res.Attempted, Produced: res.Produced})
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.app.Tasks.Delete(c.Request().Context(), id); err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.NoContent(http.StatusNoContent)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDeleteTasks(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return badRequest(c, "ids required")
	}
	if err := s.app.Tasks.Delete(c.Request().Context(), req.IDs...); err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAddAttachments(c echo.Context) error {
	files, err := uploads(c)
	if err != nil || len(files) == 0 {
		return badRequest(c, "multipart attachments required")
	}
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	t, err := s.app.Tasks.AddAttachments(c.Request().Context(), id, files)
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleRemoveAttachment(c echo.Context) error {
	id, err := s.taskID(c)
	if err != nil {
		return s.fail(c, err)
	}
	t, err := s.app.Tasks.RemoveAttachment(c.Request().Context(), id, c.Param("aid"))
	if err != nil {
		return s.fail(c, err)
	}
	s.refresh(c)
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDownloadAttachment(c echo.Context) error {
	rec, err := s.app.Attachments().Get(c.Request().Context(), c.Param("aid"))
	if err != nil {
		return s.fail(c, err)
	}
	if rec == nil {
		return s.fail(c, attachment.ErrNotFound)
	}
	typ := rec.Type
	if typ == "" {
		typ = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+strings.ReplaceAll(rec.Name, `"`, "")+`"`)
	return c.Blob(http.StatusOK, typ, rec.Blob)
}
