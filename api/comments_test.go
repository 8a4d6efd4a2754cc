package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"testing"

	"corkboard-api/domain"
)

func TestCreateCommentBroadcastsToRoster(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	bob := s.seedUser(t, "auth0|bob", "bob@example.com", "Bob")
	s.seedUser(t, "auth0|carol", "carol@example.com", "Carol")
	board := s.seedBoard(t, alice.ID)
	s.seedMember(t, board.ID, bob.ID)
	task := s.seedTask(t, board.ID)

	rec := s.do(t, http.MethodPost, "/api/create-comment", mintToken(t, alice.ID), map[string]string{
		"task_id": task.ID,
		"comment": "Looks good to me",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	comment := decodeResponse[domain.Comment](t, rec)
	if comment.AuthorEmail != alice.Email || comment.Body != "Looks good to me" {
		t.Fatalf("unexpected comment: %+v", comment)
	}

	events := s.pub.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if _, ok := events[0].event.(domain.CommentCreatedEvent); !ok {
		t.Fatalf("expected CommentCreatedEvent, got %T", events[0].event)
	}
	got := append([]string(nil), events[0].recipients...)
	sort.Strings(got)
	want := []string{alice.ID, bob.ID}
	sort.Strings(want)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected recipients %v, got %v", want, got)
	}
}

func TestCreateCommentTaggingMemberNotifies(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	bob := s.seedUser(t, "auth0|bob", "bob@example.com", "Bob")
	board := s.seedBoard(t, alice.ID)
	s.seedMember(t, board.ID, bob.ID)
	task := s.seedTask(t, board.ID)

	rec := s.do(t, http.MethodPost, "/api/create-comment", mintToken(t, alice.ID), map[string]string{
		"task_id":           task.ID,
		"comment":           "Can you review this?",
		"tagged_user_email": bob.Email,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	events := s.pub.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(events))
	}
	nEv, ok := events[0].event.(domain.NotificationEvent)
	if !ok {
		t.Fatalf("expected NotificationEvent first, got %T", events[0].event)
	}
	if len(events[0].recipients) != 1 || events[0].recipients[0] != bob.ID {
		t.Fatalf("notification recipients: %v", events[0].recipients)
	}
	wantMsg := "Alice has mentioned you in a comment, board: Sprint Board, status: In Progress task: Ship release"
	if nEv.Notification.Message != wantMsg {
		t.Fatalf("notification message:\n got %q\nwant %q", nEv.Notification.Message, wantMsg)
	}
	if _, ok := events[1].event.(domain.CommentCreatedEvent); !ok {
		t.Fatalf("expected CommentCreatedEvent second, got %T", events[1].event)
	}

	notifications, _, err := s.store.ListNotifications(context.Background(), bob.ID, 1)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Message != wantMsg || notifications[0].Seen {
		t.Fatalf("unexpected inbox: %+v", notifications)
	}
}

func TestCreateCommentSelfTagRejectedBeforePersist(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)

	rec := s.do(t, http.MethodPost, "/api/create-comment", mintToken(t, alice.ID), map[string]string{
		"task_id":           task.ID,
		"comment":           "Note to self",
		"tagged_user_email": alice.Email,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "You cannot tag yourself!") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	comments, _, err := s.store.ListComments(context.Background(), task.ID, 1)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("self-tag must not persist a comment, found %d", len(comments))
	}
	if events := s.pub.all(); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestCreateCommentTaggedNonMemberPersistsWithoutBroadcast(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	carol := s.seedUser(t, "auth0|carol", "carol@example.com", "Carol")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)

	rec := s.do(t, http.MethodPost, "/api/create-comment", mintToken(t, alice.ID), map[string]string{
		"task_id":           task.ID,
		"comment":           "Pulling in Carol",
		"tagged_user_email": carol.Email,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Tagged user is not member of this board!") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	comments, _, err := s.store.ListComments(context.Background(), task.ID, 1)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("comment must survive a failed tag, found %d", len(comments))
	}
	if events := s.pub.all(); len(events) != 0 {
		t.Fatalf("failed tag must suppress the broadcast, got %d events", len(events))
	}
	unseen, err := s.store.HasUnseen(context.Background(), carol.ID)
	if err != nil {
		t.Fatalf("has unseen: %v", err)
	}
	if unseen {
		t.Fatal("non-member must not receive a notification")
	}
}

func TestCreateCommentRequiresMembership(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	carol := s.seedUser(t, "auth0|carol", "carol@example.com", "Carol")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)

	rec := s.do(t, http.MethodPost, "/api/create-comment", mintToken(t, carol.ID), map[string]string{
		"task_id": task.ID,
		"comment": "Hello",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Not allowed to perform this action") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if comments, _, _ := s.store.ListComments(context.Background(), task.ID, 1); len(comments) != 0 {
		t.Fatalf("expected no comments, found %d", len(comments))
	}
}

func TestCreateCommentUnknownTaskIsNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")

	rec := s.do(t, http.MethodPost, "/api/create-comment", mintToken(t, alice.ID), map[string]string{
		"task_id": "missing",
		"comment": "Hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateCommentValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)
	token := mintToken(t, alice.ID)

	rec := s.do(t, http.MethodPost, "/api/create-comment", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rec.Code)
	}

	long := strings.Repeat("x", domain.MaxCommentLength+1)
	rec = s.do(t, http.MethodPost, "/api/create-comment", token, map[string]string{
		"task_id": task.ID,
		"comment": long,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized comment, got %d", rec.Code)
	}
	if comments, _, _ := s.store.ListComments(context.Background(), task.ID, 1); len(comments) != 0 {
		t.Fatalf("invalid requests must not persist, found %d", len(comments))
	}
}

func TestCreateCommentIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)
	token := mintToken(t, alice.ID)

	body := map[string]string{"task_id": task.ID, "comment": "Once only"}
	first := s.do(t, http.MethodPost, "/api/create-comment", token, body)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		rec := s.doWithHeader(t, http.MethodPost, "/api/create-comment", token, body,
			idempotencyKeyHeader, "retry-abc123")
		if rec.Code != want {
			t.Fatalf("attempt %d: expected %d, got %d: %s", i, want, rec.Code, rec.Body.String())
		}
	}

	comments, _, err := s.store.ListComments(context.Background(), task.ID, 1)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments (one plain, one deduped pair), got %d", len(comments))
	}
}

func TestDeleteCommentPublishesBeforeDelete(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)
	comment, err := s.store.CreateComment(context.Background(), task.ID, "Ephemeral", alice.Email)
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	var existedAtPublish bool
	s.pub.hook = func(ev domain.Event, _ []string) {
		if _, ok := ev.(domain.CommentDeletedEvent); !ok {
			return
		}
		_, findErr := s.store.FindComment(context.Background(), comment.ID)
		existedAtPublish = findErr == nil
	}

	rec := s.do(t, http.MethodDelete, "/api/delete-comment/"+comment.ID, mintToken(t, alice.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if !existedAtPublish {
		t.Fatal("delete event must be published while the comment still exists")
	}

	events := s.pub.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev, ok := events[0].event.(domain.CommentDeletedEvent)
	if !ok {
		t.Fatalf("expected CommentDeletedEvent, got %T", events[0].event)
	}
	if ev.CommentID != comment.ID || ev.TaskID != task.ID {
		t.Fatalf("unexpected event payload: %+v", ev)
	}
}

func TestDeleteCommentAuditPhrasing(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	bob := s.seedUser(t, "auth0|bob", "bob@example.com", "Bob")
	board := s.seedBoard(t, alice.ID)
	s.seedMember(t, board.ID, bob.ID)
	task := s.seedTask(t, board.ID)

	own, err := s.store.CreateComment(context.Background(), task.ID, "Mine", bob.Email)
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	other, err := s.store.CreateComment(context.Background(), task.ID, "Also Bob's", bob.Email)
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	if rec := s.do(t, http.MethodDelete, "/api/delete-comment/"+own.ID, mintToken(t, bob.ID), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("self delete: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, http.MethodDelete, "/api/delete-comment/"+other.ID, mintToken(t, alice.ID), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("moderator delete: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	entries, err := s.store.ListHistory(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	wantSelf := "bob@example.com deleted own comment"
	wantOther := fmt.Sprintf("alice@example.com deleted %s`s comment", bob.Email)
	if !containsString(actions, wantSelf) {
		t.Fatalf("missing audit entry %q in %v", wantSelf, actions)
	}
	if !containsString(actions, wantOther) {
		t.Fatalf("missing audit entry %q in %v", wantOther, actions)
	}
}

func TestDeleteCommentNonMemberIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	carol := s.seedUser(t, "auth0|carol", "carol@example.com", "Carol")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)
	comment, err := s.store.CreateComment(context.Background(), task.ID, "Keep out", alice.Email)
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	rec := s.do(t, http.MethodDelete, "/api/delete-comment/"+comment.ID, mintToken(t, carol.ID), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Not allowed") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if _, err := s.store.FindComment(context.Background(), comment.ID); err != nil {
		t.Fatalf("comment must survive a refused delete: %v", err)
	}
}

func TestDeleteCommentTwiceIsNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)
	comment, err := s.store.CreateComment(context.Background(), task.ID, "Once", alice.Email)
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	token := mintToken(t, alice.ID)

	if rec := s.do(t, http.MethodDelete, "/api/delete-comment/"+comment.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/api/delete-comment/"+comment.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestGetCommentsPagination(t *testing.T) {
	s := newTestServer(t)
	alice := s.seedUser(t, "auth0|alice", "alice@example.com", "Alice")
	carol := s.seedUser(t, "auth0|carol", "carol@example.com", "Carol")
	board := s.seedBoard(t, alice.ID)
	task := s.seedTask(t, board.ID)
	for i := 0; i < 7; i++ {
		if _, err := s.store.CreateComment(context.Background(), task.ID, fmt.Sprintf("comment %d", i), alice.Email); err != nil {
			t.Fatalf("seed comment %d: %v", i, err)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/get-comments/"+task.ID, mintToken(t, alice.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page1 := decodeResponse[commentsPageResponse](t, rec)
	if len(page1.Comments) != 5 || !page1.HasMorePages || page1.LastPage != 2 {
		t.Fatalf("unexpected first page: %d comments, more=%v, last=%d",
			len(page1.Comments), page1.HasMorePages, page1.LastPage)
	}

	rec = s.do(t, http.MethodGet, "/api/get-comments/"+task.ID+"?page=2", mintToken(t, alice.ID), nil)
	page2 := decodeResponse[commentsPageResponse](t, rec)
	if len(page2.Comments) != 2 || page2.HasMorePages {
		t.Fatalf("unexpected second page: %d comments, more=%v", len(page2.Comments), page2.HasMorePages)
	}

	if rec := s.do(t, http.MethodGet, "/api/get-comments/"+task.ID, mintToken(t, carol.ID), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", rec.Code)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
