package api

import (
	"context"

	"corkboard-api/domain"
	"corkboard-api/storage"
)

// Store is the persistence surface handlers depend on. *storage.Storage and
// *storage.UnseenCache both satisfy it.
type Store interface {
	Ping() error

	UpsertUser(ctx context.Context, id, email, name string) (domain.User, error)
	FindUser(ctx context.Context, id string) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)

	CreateBoard(ctx context.Context, name, ownerID string) (domain.Board, error)
	FindBoard(ctx context.Context, id string) (domain.Board, error)
	ListBoardsForUser(ctx context.Context, userID string, page int) ([]domain.Board, storage.PageInfo, error)
	SetBoardArchived(ctx context.Context, id string, archived bool) error
	DeleteBoard(ctx context.Context, id string) error

	IsMember(ctx context.Context, boardID, userID string) (bool, error)
	RoleOf(ctx context.Context, boardID, userID string) (domain.Role, error)
	Members(ctx context.Context, boardID string) ([]string, error)
	BoardMembers(ctx context.Context, boardID string) ([]domain.BoardMember, error)
	AddMember(ctx context.Context, boardID, userID string, role domain.Role) error
	RemoveMember(ctx context.Context, boardID, userID string) error
	ChangeRole(ctx context.Context, boardID, userID string, role domain.Role) error

	CreateStatus(ctx context.Context, boardID, name string) (domain.Status, error)
	FindStatus(ctx context.Context, id string) (domain.Status, error)
	CreateTask(ctx context.Context, statusID, name string) (domain.Task, error)
	FindTask(ctx context.Context, id string) (domain.TaskDetail, error)
	ListTasks(ctx context.Context, statusID string, page int) ([]domain.Task, storage.PageInfo, error)

	CreateComment(ctx context.Context, taskID, body, authorEmail string) (domain.Comment, error)
	FindComment(ctx context.Context, id string) (domain.Comment, error)
	ListComments(ctx context.Context, taskID string, page int) ([]domain.Comment, storage.PageInfo, error)
	DeleteComment(ctx context.Context, id string) error

	CreateNotification(ctx context.Context, userID, message string) (domain.Notification, error)
	ListNotifications(ctx context.Context, userID string, page int) ([]domain.Notification, storage.PageInfo, error)
	HasUnseen(ctx context.Context, userID string) (bool, error)
	MarkSeen(ctx context.Context, id, userID string) error
	MarkAllSeen(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id, userID string) error

	AppendHistory(ctx context.Context, taskID, userID, action string) (domain.HistoryEntry, error)
	ListHistory(ctx context.Context, taskID string) ([]domain.HistoryEntry, error)
}

// Publisher delivers an event to the live sessions of every recipient.
// Delivery is best effort: the durable notification row, not the broadcast,
// is the record of what happened.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event, recipients []string) error
}

// Authenticator is implemented by types able to extract user IDs from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of repeated requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key so the request may be retried.
	Remove(ctx context.Context, userID, key string) error
}
