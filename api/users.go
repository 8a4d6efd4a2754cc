package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard-api/storage"
)

type profileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func putProfile(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req profileRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid body")
		}
		req.Email = strings.TrimSpace(req.Email)
		req.Name = strings.TrimSpace(req.Name)

		var problems []string
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			problems = append(problems, "email must be a valid address")
		}
		if req.Name == "" {
			problems = append(problems, "name is required")
		}
		if len(problems) > 0 {
			return validationError(c, problems)
		}

		user, err := store.UpsertUser(c.Request().Context(), userID(c), req.Email, req.Name)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return errJSON(c, http.StatusBadRequest, "Email already in use!")
			}
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, user)
	}
}

func getUser(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := store.FindUser(c.Request().Context(), userID(c))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "User not found!")
			}
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, user)
	}
}
