package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard-api/domain"
	"corkboard-api/storage"
)

type markSeenRequest struct {
	NotificationID string `json:"notification_id"`
}

type notificationsPageResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	CurrentPage   int                   `json:"current_page"`
	HasMorePages  bool                  `json:"has_more_pages"`
	LastPage      int                   `json:"last_page"`
}

func getUserNotifications(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := pageParam(c)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid page")
		}
		notifications, info, err := store.ListNotifications(c.Request().Context(), userID(c), page)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, notificationsPageResponse{
			Notifications: notifications,
			CurrentPage:   info.CurrentPage,
			HasMorePages:  info.HasMorePages,
			LastPage:      info.LastPage,
		})
	}
}

func hasUnseenNotifications(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		unseen, err := store.HasUnseen(c.Request().Context(), userID(c))
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, map[string]bool{"has_unseen": unseen})
	}
}

// markNotificationSeen marks one notification, or with an empty body every
// notification of the caller, as seen. Seen never reverts.
func markNotificationSeen(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req markSeenRequest
		if c.Request().ContentLength != 0 {
			if err := decodeBody(c, &req); err != nil {
				return errJSON(c, http.StatusBadRequest, "invalid body")
			}
		}

		ctx := c.Request().Context()
		uid := userID(c)
		if req.NotificationID == "" {
			if err := store.MarkAllSeen(ctx, uid); err != nil {
				return internalError(c, logger, err)
			}
			return c.NoContent(http.StatusNoContent)
		}

		if err := store.MarkSeen(ctx, req.NotificationID, uid); err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return errJSON(c, http.StatusNotFound, "Notification not found!")
			case errors.Is(err, storage.ErrForbidden):
				return errJSON(c, http.StatusForbidden, notAllowedMessage)
			default:
				return internalError(c, logger, err)
			}
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteNotification(store Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := store.DeleteNotification(c.Request().Context(), c.Param("id"), userID(c))
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return errJSON(c, http.StatusNotFound, "Notification not found!")
			case errors.Is(err, storage.ErrForbidden):
				return errJSON(c, http.StatusForbidden, notAllowedMessage)
			default:
				return internalError(c, logger, err)
			}
		}
		return c.NoContent(http.StatusNoContent)
	}
}
