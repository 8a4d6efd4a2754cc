package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const userIDKey = "corkboard.user_id"

// AuthMiddleware rejects requests without a valid bearer token and stores
// the authenticated user id on the echo context for handlers.
func AuthMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return errJSON(c, http.StatusUnauthorized, err.Error())
			}
			c.Set(userIDKey, uid)
			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	uid, _ := c.Get(userIDKey).(string)
	return uid
}
