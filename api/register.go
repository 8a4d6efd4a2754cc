package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard-api/stream"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, pub Publisher, hub *stream.Hub, auth Authenticator, ded Deduper, logger *log.Logger) {
	e.GET("/healthz", healthz(store))

	// The EventSource API cannot set headers, so the stream route does its
	// own auth with a query-parameter fallback.
	e.GET("/api/stream", streamEvents(hub, auth))

	g := e.Group("/api", AuthMiddleware(auth))

	g.PUT("/profile", putProfile(store, logger))
	g.GET("/user", getUser(store, logger))

	g.POST("/create-board", createBoard(store, logger))
	g.GET("/board/:id", getBoard(store, logger))
	g.GET("/get-user-boards", getUserBoards(store, logger))
	g.PUT("/archive-board/:id", archiveBoard(store, logger))
	g.DELETE("/delete-board/:id", deleteBoard(store, logger))

	g.GET("/get-board-members/:id", getBoardMembers(store, logger))
	g.POST("/add-board-member", addBoardMember(store, logger))
	g.PUT("/change-boardmember-role", changeBoardMemberRole(store, logger))
	g.DELETE("/remove-member-from-board/:board_id/:user_id", removeMemberFromBoard(store, logger))

	g.POST("/create-status", createStatus(store, logger))
	g.POST("/create-task", createTask(store, logger))
	g.GET("/get-tasks/:status_id", getTasksForStatus(store, logger))
	g.GET("/get-task-history/:task_id", getTaskHistory(store, logger))

	g.POST("/create-comment", createComment(store, pub, ded, logger))
	g.GET("/get-comments/:task_id", getComments(store, logger))
	g.DELETE("/delete-comment/:comment_id", deleteComment(store, pub, logger))

	g.GET("/get-user-notifications", getUserNotifications(store, logger))
	g.GET("/has-user-unseen-notifications", hasUnseenNotifications(store, logger))
	g.PUT("/mark-notification-as-seen", markNotificationSeen(store, logger))
	g.DELETE("/delete-notification/:id", deleteNotification(store, logger))
}

func healthz(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}
