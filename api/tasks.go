package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard-api/domain"
	"corkboard-api/storage"
)

type createStatusRequest struct {
	BoardID string `json:"board_id"`
	Name    string `json:"name"`
}

type createTaskRequest struct {
	StatusID string `json:"status_id"`
	Name     string `json:"name"`
}

type tasksPageResponse struct {
	Tasks        []domain.Task `json:"tasks"`
	CurrentPage  int           `json:"current_page"`
	HasMorePages bool          `json:"has_more_pages"`
	LastPage     int           `json:"last_page"`
}

func createStatus(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createStatusRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid body")
		}
		req.Name = strings.TrimSpace(req.Name)

		var problems []string
		if req.BoardID == "" {
			problems = append(problems, "board_id is required")
		}
		if req.Name == "" {
			problems = append(problems, "name is required")
		}
		if len(problems) > 0 {
			return validationError(c, problems)
		}

		ctx := c.Request().Context()
		board, err := store.FindBoard(ctx, req.BoardID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Board not found!")
			}
			return internalError(c, logger, err)
		}
		member, err := store.IsMember(ctx, board.ID, userID(c))
		if err != nil {
			return internalError(c, logger, err)
		}
		if !member {
			return errJSON(c, http.StatusForbidden, notAllowedMessage)
		}

		status, err := store.CreateStatus(ctx, board.ID, req.Name)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, status)
	}
}

func createTask(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid body")
		}
		req.Name = strings.TrimSpace(req.Name)

		var problems []string
		if req.StatusID == "" {
			problems = append(problems, "status_id is required")
		}
		if req.Name == "" {
			problems = append(problems, "name is required")
		}
		if len(problems) > 0 {
			return validationError(c, problems)
		}

		ctx := c.Request().Context()
		uid := userID(c)
		author, err := store.FindUser(ctx, uid)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusUnauthorized, "no profile for this identity")
			}
			return internalError(c, logger, err)
		}

		status, err := store.FindStatus(ctx, req.StatusID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Status not found!")
			}
			return internalError(c, logger, err)
		}
		member, err := store.IsMember(ctx, status.BoardID, uid)
		if err != nil {
			return internalError(c, logger, err)
		}
		if !member {
			return errJSON(c, http.StatusForbidden, notAllowedMessage)
		}

		task, err := store.CreateTask(ctx, status.ID, req.Name)
		if err != nil {
			return internalError(c, logger, err)
		}
		if _, err := store.AppendHistory(ctx, task.ID, uid, fmt.Sprintf("%s created task", author.Email)); err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func getTasksForStatus(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		status, err := store.FindStatus(ctx, c.Param("status_id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Status not found!")
			}
			return internalError(c, logger, err)
		}
		member, err := store.IsMember(ctx, status.BoardID, userID(c))
		if err != nil {
			return internalError(c, logger, err)
		}
		if !member {
			return errJSON(c, http.StatusForbidden, notAllowedMessage)
		}

		page, err := pageParam(c)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid page")
		}
		tasks, info, err := store.ListTasks(ctx, status.ID, page)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, tasksPageResponse{
			Tasks:        tasks,
			CurrentPage:  info.CurrentPage,
			HasMorePages: info.HasMorePages,
			LastPage:     info.LastPage,
		})
	}
}

func getTaskHistory(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		task, err := store.FindTask(ctx, c.Param("task_id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Task not found!")
			}
			return internalError(c, logger, err)
		}
		member, err := store.IsMember(ctx, task.BoardID, userID(c))
		if err != nil {
			return internalError(c, logger, err)
		}
		if !member {
			return errJSON(c, http.StatusForbidden, notAllowedMessage)
		}

		entries, err := store.ListHistory(ctx, task.ID)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, entries)
	}
}
