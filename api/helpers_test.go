package api

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"

	"corkboard-api/domain"
	"corkboard-api/storage"
	"corkboard-api/stream"
)

const testSecret = "test-secret"

type publishedEvent struct {
	event      domain.Event
	recipients []string
}

// capturePublisher records published events in order instead of fanning
// them out. Tests that care about when a publish happens relative to other
// side effects set hook.
type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	hook   func(domain.Event, []string)
}

func (p *capturePublisher) Publish(_ context.Context, ev domain.Event, recipients []string) error {
	if p.hook != nil {
		p.hook(ev, recipients)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{
		event:      ev,
		recipients: append([]string(nil), recipients...),
	})
	return nil
}

func (p *capturePublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type testServer struct {
	e     *echo.Echo
	store *storage.Storage
	pub   *capturePublisher
	hub   *stream.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	logger, _ := test.NewNullLogger()
	pub := &capturePublisher{}
	hub := stream.NewHub()
	auth := NewLocalAuth([]byte(testSecret), "", "")
	ded := NewRedisDeduper(rc, time.Hour)

	e := echo.New()
	Register(e, store, pub, hub, auth, ded, logger)

	return &testServer{e: e, store: store, pub: pub, hub: hub}
}

func mintToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeader(t, method, path, token, body, "", "")
}

func (s *testServer) doWithHeader(t *testing.T, method, path, token string, body any, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedUser(t *testing.T, id, email, name string) domain.User {
	t.Helper()
	user, err := s.store.UpsertUser(context.Background(), id, email, name)
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func (s *testServer) seedBoard(t *testing.T, ownerID string) domain.Board {
	t.Helper()
	board, err := s.store.CreateBoard(context.Background(), "Sprint Board", ownerID)
	if err != nil {
		t.Fatalf("seed board: %v", err)
	}
	return board
}

func (s *testServer) seedMember(t *testing.T, boardID, userID string) {
	t.Helper()
	if err := s.store.AddMember(context.Background(), boardID, userID, domain.RoleMember); err != nil {
		t.Fatalf("seed member %s: %v", userID, err)
	}
}

func (s *testServer) seedTask(t *testing.T, boardID string) domain.Task {
	t.Helper()
	ctx := context.Background()
	status, err := s.store.CreateStatus(ctx, boardID, "In Progress")
	if err != nil {
		t.Fatalf("seed status: %v", err)
	}
	task, err := s.store.CreateTask(ctx, status.ID, "Ship release")
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
