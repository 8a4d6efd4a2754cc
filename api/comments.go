package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard-api/domain"
	"corkboard-api/storage"
)

const idempotencyKeyHeader = "Idempotency-Key"

type createCommentRequest struct {
	TaskID          string `json:"task_id"`
	Comment         string `json:"comment"`
	TaggedUserEmail string `json:"tagged_user_email"`
}

type commentsPageResponse struct {
	Comments     []domain.Comment `json:"comments"`
	CurrentPage  int              `json:"current_page"`
	HasMorePages bool             `json:"has_more_pages"`
	LastPage     int              `json:"last_page"`
}

func createComment(store Store, pub Publisher, ded Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newCommentRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var req createCommentRequest
		if decodeErr := decodeBody(c, &req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = errJSON(c, http.StatusBadRequest, "invalid body")
			return err
		}
		req.TaggedUserEmail = strings.TrimSpace(req.TaggedUserEmail)

		var problems []string
		if strings.TrimSpace(req.Comment) == "" {
			problems = append(problems, "comment is required")
		} else if len(req.Comment) > domain.MaxCommentLength {
			problems = append(problems, fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLength))
		}
		if req.TaskID == "" {
			problems = append(problems, "task_id is required")
		}
		if len(problems) > 0 {
			metrics.SetErrorStage("validation")
			err = validationError(c, problems)
			return err
		}

		uid := userID(c)
		idemKey := strings.TrimSpace(c.Request().Header.Get(idempotencyKeyHeader))
		if idemKey != "" {
			added, dedErr := ded.Add(ctx, uid, idemKey)
			if dedErr != nil {
				metrics.SetErrorStage("dedupe")
				err = internalError(c, logger, dedErr)
				return err
			}
			if !added {
				metrics.SetErrorStage("duplicate")
				err = errJSON(c, http.StatusConflict, "duplicate request")
				return err
			}
		}
		// Frees the key so the client may retry after a server-side failure.
		releaseKey := func() {
			if idemKey == "" {
				return
			}
			if remErr := ded.Remove(ctx, uid, idemKey); remErr != nil {
				logger.Warnf("release idempotency key: %v", remErr)
			}
		}

		author, findErr := store.FindUser(ctx, uid)
		if findErr != nil {
			if errors.Is(findErr, storage.ErrNotFound) {
				metrics.SetErrorStage("profile")
				err = errJSON(c, http.StatusUnauthorized, "no profile for this identity")
				return err
			}
			metrics.SetErrorStage("profile")
			releaseKey()
			err = internalError(c, logger, findErr)
			return err
		}

		task, taskErr := store.FindTask(ctx, req.TaskID)
		if taskErr != nil {
			if errors.Is(taskErr, storage.ErrNotFound) {
				metrics.SetErrorStage("task_lookup")
				err = errJSON(c, http.StatusNotFound, "Task not found!")
				return err
			}
			metrics.SetErrorStage("task_lookup")
			releaseKey()
			err = internalError(c, logger, taskErr)
			return err
		}

		member, memberErr := store.IsMember(ctx, task.BoardID, uid)
		if memberErr != nil {
			metrics.SetErrorStage("membership")
			releaseKey()
			err = internalError(c, logger, memberErr)
			return err
		}
		if !member {
			metrics.SetErrorStage("membership")
			err = errJSON(c, http.StatusForbidden, notAllowedMessage)
			return err
		}

		// Tag resolution happens before the comment persists so that
		// self-tagging never leaves a row behind. An email that matches no
		// profile is ignored.
		var tagged domain.User
		var hasTagged bool
		if req.TaggedUserEmail != "" {
			var tagErr error
			tagged, tagErr = store.FindUserByEmail(ctx, req.TaggedUserEmail)
			switch {
			case tagErr == nil:
				hasTagged = true
			case errors.Is(tagErr, storage.ErrNotFound):
			default:
				metrics.SetErrorStage("tag_lookup")
				releaseKey()
				err = internalError(c, logger, tagErr)
				return err
			}
			if hasTagged && tagged.ID == uid {
				metrics.SetErrorStage("self_tag")
				err = errJSON(c, http.StatusBadRequest, "You cannot tag yourself!")
				return err
			}
		}
		metrics.SetTaggedUser(hasTagged)

		storeStart := time.Now()
		comment, createErr := store.CreateComment(ctx, task.ID, req.Comment, author.Email)
		metrics.ObserveStore(time.Since(storeStart))
		if createErr != nil {
			metrics.SetErrorStage("store")
			releaseKey()
			err = internalError(c, logger, createErr)
			return err
		}

		// The tagged-membership check runs after the comment is persisted:
		// a tagging failure refuses the request but the comment stays.
		if hasTagged {
			taggedMember, tmErr := store.IsMember(ctx, task.BoardID, tagged.ID)
			if tmErr != nil {
				metrics.SetErrorStage("tagged_membership")
				releaseKey()
				err = internalError(c, logger, tmErr)
				return err
			}
			if !taggedMember {
				metrics.SetErrorStage("tagged_membership")
				err = errJSON(c, http.StatusBadRequest, "Tagged user is not member of this board!")
				return err
			}

			notification, nErr := store.CreateNotification(ctx, tagged.ID, fmt.Sprintf(
				"%s has mentioned you in a comment, board: %s, status: %s task: %s",
				author.Name, task.BoardName, task.StatusName, task.Name,
			))
			if nErr != nil {
				metrics.SetErrorStage("notify")
				releaseKey()
				err = internalError(c, logger, nErr)
				return err
			}
			if pubErr := pub.Publish(ctx, domain.NotificationEvent{Notification: notification}, []string{tagged.ID}); pubErr != nil {
				logger.Warnf("publish notification event: %v", pubErr)
			}
		}

		// Recipients are resolved at publish time so membership changes since
		// the request began are respected.
		publishStart := time.Now()
		recipients, recErr := store.Members(ctx, task.BoardID)
		if recErr != nil {
			logger.Warnf("resolve comment recipients: %v", recErr)
		} else {
			metrics.SetRecipients(len(recipients))
			if pubErr := pub.Publish(ctx, domain.CommentCreatedEvent{Comment: comment}, recipients); pubErr != nil {
				logger.Warnf("publish comment event: %v", pubErr)
			}
		}
		metrics.ObservePublish(time.Since(publishStart))

		err = c.JSON(http.StatusCreated, comment)
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getComments(store Store, logger *log.Logger) echo.HandlerFunc {
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

		page, err := pageParam(c)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid page")
		}
		comments, info, err := store.ListComments(ctx, task.ID, page)
		if err != nil {
			return internalError(c, logger, err)
		}
		return c.JSON(http.StatusOK, commentsPageResponse{
			Comments:     comments,
			CurrentPage:  info.CurrentPage,
			HasMorePages: info.HasMorePages,
			LastPage:     info.LastPage,
		})
	}
}

func deleteComment(store Store, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		comment, err := store.FindComment(ctx, c.Param("comment_id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Comment not found!")
			}
			return internalError(c, logger, err)
		}
		task, err := store.FindTask(ctx, comment.TaskID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Task not found!")
			}
			return internalError(c, logger, err)
		}

		uid := userID(c)
		actor, err := store.FindUser(ctx, uid)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusUnauthorized, "no profile for this identity")
			}
			return internalError(c, logger, err)
		}
		member, err := store.IsMember(ctx, task.BoardID, uid)
		if err != nil {
			return internalError(c, logger, err)
		}
		if !member {
			return errJSON(c, http.StatusUnauthorized, "Not allowed")
		}

		// The removal event goes out before the row disappears so clients
		// drop the comment from view without racing the delete.
		recipients, err := store.Members(ctx, task.BoardID)
		if err != nil {
			return internalError(c, logger, err)
		}
		ev := domain.CommentDeletedEvent{CommentID: comment.ID, TaskID: comment.TaskID}
		if pubErr := pub.Publish(ctx, ev, recipients); pubErr != nil {
			logger.Warnf("publish delete event: %v", pubErr)
		}

		if err := store.DeleteComment(ctx, comment.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errJSON(c, http.StatusNotFound, "Comment not found!")
			}
			return internalError(c, logger, err)
		}

		action := fmt.Sprintf("%s deleted own comment", actor.Email)
		if comment.AuthorEmail != actor.Email {
			action = fmt.Sprintf("%s deleted %s`s comment", actor.Email, comment.AuthorEmail)
		}
		if _, err := store.AppendHistory(ctx, comment.TaskID, uid, action); err != nil {
			return internalError(c, logger, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
