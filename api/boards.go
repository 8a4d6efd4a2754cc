package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard-api/domain"
	"corkboard-api/storage"
)

const notAllowedMessage = "Not allowed to perform this action"

type createBoardRequest struct {
	Name string `json:"name"`
}

type boardsPageResponse struct {
	Boards       []domain.Board `json:"boards"`
	CurrentPage  int            `json:"current_page"`
	HasMorePages bool           `json:"has_more_pages"`
	LastPage     int            `json:"last_page"`
}

func createBoard(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createBoardRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid body")
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			return validationError(c, []string{"name is required"})
		}

		ctx := c.Request().Context()
		uid := userID(c)
		if _, err := store.FindUser(ctx, uid); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusUnauthorized, "no profile for this identity")
			}
			return internalError(c, logger, err)
		}

		board, err := store.CreateBoard(ctx, req.Name, uid)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, board)
	}
}

func getBoard(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		board, err := store.FindBoard(ctx, c.Param("id"))
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
		return c.JSON(http.StatusOK, board)
	}
}

func getUserBoards(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := pageParam(c)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid page")
		}
		boards, info, err := store.ListBoardsForUser(c.Request().Context(), userID(c), page)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, boardsPageResponse{
			Boards:       boards,
			CurrentPage:  info.CurrentPage,
			HasMorePages: info.HasMorePages,
			LastPage:     info.LastPage,
		})
	}
}

func archiveBoard(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		board, err := store.FindBoard(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Board not found!")
			}
			return internalError(c, logger, err)
		}
		if status, msg, err := requireOwner(c, store, board.ID); err != nil {
			return internalError(c, logger, err)
		} else if status != 0 {
			return errJSON(c, status, msg)
		}
		if err := store.SetBoardArchived(ctx, board.ID, true); err != nil {
			return internalError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteBoard(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		board, err := store.FindBoard(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Board not found!")
			}
			return internalError(c, logger, err)
		}
		if status, msg, err := requireOwner(c, store, board.ID); err != nil {
			return internalError(c, logger, err)
		} else if status != 0 {
			return errJSON(c, status, msg)
		}
		if err := store.DeleteBoard(ctx, board.ID); err != nil {
			return internalError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// requireOwner resolves the caller's role on the board. A non-zero status
// means the caller must be refused with that status and message.
func requireOwner(c echo.Context, store Store, boardID string) (int, string, error) {
	role, err := store.RoleOf(c.Request().Context(), boardID, userID(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return http.StatusForbidden, notAllowedMessage, nil
		}
		return 0, "", err
	}
	if role != domain.RoleOwner {
		return http.StatusForbidden, notAllowedMessage, nil
	}
	return 0, "", nil
}
