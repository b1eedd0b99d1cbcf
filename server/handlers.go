package server

import (
	"errors"
	"net/http"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// fail maps a provider error onto an HTTP status
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	logger.Error("Request failed",
		logger.F("path", c.Path()),
		logger.F("user_id", userID(c)),
		logger.F("error", err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) handleListTasks(c echo.Context) error {
	tasks, err := s.data.ListTasks(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// prepareTask fills defaults and keeps CompletedDate consistent with Status
func (s *Server) prepareTask(t *model.Task) error {
	now := s.now()
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.SetStatus(t.Status, now)
	return t.Validate()
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var t model.Task
	if err := c.Bind(&t); err != nil {
		return badRequest(c, "invalid request")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedBy == "" {
		t.CreatedBy = userID(c)
	}
	if err := s.prepareTask(&t); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.data.CreateTask(c.Request().Context(), userID(c), &t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var t model.Task
	if err := c.Bind(&t); err != nil {
		return badRequest(c, "invalid request")
	}
	t.ID = c.Param("id")
	if err := s.prepareTask(&t); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.data.UpdateTask(c.Request().Context(), userID(c), &t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	if err := s.data.DeleteTask(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUploadImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file required")
	}
	if file.Size > s.uploadLimit {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	defer src.Close()

	url, err := s.data.AttachImage(c.Request().Context(), userID(c), c.Param("id"), file.Filename, src)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"image_url": url})
}

func (s *Server) handleAttachment(c echo.Context) error {
	src, ok := s.data.(attachmentSource)
	if !ok {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "attachments unavailable"})
	}
	a, err := src.attachment(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set("Content-Disposition", `inline; filename="`+a.Filename+`"`)
	return c.Blob(http.StatusOK, a.ContentType, a.Data)
}

func (s *Server) handleListMembers(c echo.Context) error {
	members, err := s.data.ListMembers(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (s *Server) handleCreateMember(c echo.Context) error {
	var m model.TeamMember
	if err := c.Bind(&m); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := m.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.data.CreateMember(c.Request().Context(), userID(c), &m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleDeleteMember(c echo.Context) error {
	if err := s.data.DeleteMember(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListDepartments(c echo.Context) error {
	departments, err := s.data.ListDepartments(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, departments)
}

func (s *Server) handleCreateDepartment(c echo.Context) error {
	var d model.Department
	if err := c.Bind(&d); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := d.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.data.CreateDepartment(c.Request().Context(), userID(c), &d); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (s *Server) handleDeleteDepartment(c echo.Context) error {
	if err := s.data.DeleteDepartment(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleDashboard computes the dashboard over the caller's snapshot
func (s *Server) handleDashboard(c echo.Context) error {
	snap, err := store.LoadSnapshot(c.Request().Context(), s.data, userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, aggregate.Compute(snap, s.now()))
}
