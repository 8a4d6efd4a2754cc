package domain

// Event is a realtime message fanned out to the live sessions of board
// members. The implementation set is closed: a new topic means a new type
// here, which forces every switch over Event to grow a case.
type Event interface {
	// Topic is the routing tag clients use to classify the payload.
	Topic() string
	// EventPayload is the body serialized into the wire envelope.
	EventPayload() any

	sealed()
}

// CommentCreatedEvent carries a freshly persisted comment to every member of
// the owning board, author included.
type CommentCreatedEvent struct {
	Comment Comment
}

func (CommentCreatedEvent) Topic() string { return "comments" }

func (e CommentCreatedEvent) EventPayload() any { return e.Comment }

func (CommentCreatedEvent) sealed() {}

// CommentDeletedEvent announces a comment removal. It is published before
// the delete commits; clients drop the comment from view optimistically.
type CommentDeletedEvent struct {
	CommentID string `json:"comment_id"`
	TaskID    string `json:"task_id"`
}

func (CommentDeletedEvent) Topic() string { return "delete_comment" }

func (e CommentDeletedEvent) EventPayload() any { return e }

func (CommentDeletedEvent) sealed() {}

// NotificationEvent carries an inbox entry to its single target user. The
// durable row exists regardless of whether this live delivery lands.
type NotificationEvent struct {
	Notification Notification
}

func (NotificationEvent) Topic() string { return "notification" }

func (e NotificationEvent) EventPayload() any { return e.Notification }

func (NotificationEvent) sealed() {}
