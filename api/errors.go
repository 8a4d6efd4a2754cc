package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// internalErrorMessage is all a client ever sees of an unexpected failure;
// the detail goes to the log.
const internalErrorMessage = "Something went wrong, please contact administrator!"

func errJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

func internalError(c echo.Context, logger *log.Logger, err error) error {
	logger.WithFields(log.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Errorf("internal error: %v", err)
	return errJSON(c, http.StatusInternalServerError, internalErrorMessage)
}

// validationError aggregates every field problem into a single response.
func validationError(c echo.Context, problems []string) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"error":   "Bad request",
		"details": problems,
	})
}
