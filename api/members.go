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

type addMemberRequest struct {
	BoardID   string `json:"board_id"`
	UserEmail string `json:"user_email"`
	Role      string `json:"role"`
}

type changeRoleRequest struct {
	BoardID string `json:"board_id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
}

func getBoardMembers(store Store, logger *log.Logger) echo.HandlerFunc {
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
		members, err := store.BoardMembers(ctx, board.ID)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, members)
	}
}

func addBoardMember(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req addMemberRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid body")
		}
		req.UserEmail = strings.TrimSpace(req.UserEmail)

		var problems []string
		if req.BoardID == "" {
			problems = append(problems, "board_id is required")
		}
		if req.UserEmail == "" {
			problems = append(problems, "user_email is required")
		}
		role := domain.RoleMember
		if req.Role != "" {
			role = domain.Role(req.Role)
			if !role.Valid() {
				problems = append(problems, "role must be one of: owner, member")
			}
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
		if status, msg, err := requireOwner(c, store, board.ID); err != nil {
			return internalError(c, logger, err)
		} else if status != 0 {
			return errJSON(c, status, msg)
		}

		user, err := store.FindUserByEmail(ctx, req.UserEmail)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "User not found!")
			}
			return internalError(c, logger, err)
		}

		if err := store.AddMember(ctx, board.ID, user.ID, role); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return errJSON(c, http.StatusBadRequest, "User is already a member of this board!")
			}
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, domain.BoardMember{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   role,
		})
	}
}

func changeBoardMemberRole(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req changeRoleRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid body")
		}

		var problems []string
		if req.BoardID == "" {
			problems = append(problems, "board_id is required")
		}
		if req.UserID == "" {
			problems = append(problems, "user_id is required")
		}
		role := domain.Role(req.Role)
		if !role.Valid() {
			problems = append(problems, "role must be one of: owner, member")
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
		if status, msg, err := requireOwner(c, store, board.ID); err != nil {
			return internalError(c, logger, err)
		} else if status != 0 {
			return errJSON(c, status, msg)
		}
		if req.UserID == board.OwnerID {
			return errJSON(c, http.StatusBadRequest, "The board owner role cannot be changed!")
		}

		if err := store.ChangeRole(ctx, board.ID, req.UserID, role); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "User is not a member of this board!")
			}
			return internalError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func removeMemberFromBoard(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		board, err := store.FindBoard(ctx, c.Param("board_id"))
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
		target := c.Param("user_id")
		if target == board.OwnerID {
			return errJSON(c, http.StatusBadRequest, "The board owner cannot be removed!")
		}

		if err := store.RemoveMember(ctx, board.ID, target); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "User is not a member of this board!")
			}
			return internalError(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
