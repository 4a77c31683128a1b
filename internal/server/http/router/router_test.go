package router

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/domain/model"
	"github.com/polkiloo/channelpass/internal/pkg/auth"
	"github.com/polkiloo/channelpass/internal/server/http/middleware"
)

type updateSink struct {
	mu  sync.Mutex
	ids []int
}

func (s *updateSink) Handle(_ context.Context, u telegram.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, u.UpdateID)
}

type ordersStub struct{}

func (ordersStub) ListByUser(_ context.Context, userID int64) ([]model.Order, error) {
	return []model.Order{{ID: 1, UserID: userID, Status: model.OrderStatusPending}}, nil
}

func (ordersStub) OrderByID(_ context.Context, id int64) (*model.Order, error) {
	return &model.Order{ID: id, UserID: 42, Status: model.OrderStatusPending}, nil
}

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

func newDeps(t *testing.T, withAudit bool) (Dependencies, *updateSink) {
	t.Helper()
	sink := &updateSink{}
	deps := Dependencies{
		Updates:       sink,
		Orders:        ordersStub{},
		Health:        healthStub{},
		WebhookSecret: "hook-secret",
	}
	if withAudit {
		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		hash, err := hasher.Hash("pw")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		deps.Auditor = auth.NewBasicCredentials("admin", hash, hasher)
	}
	return deps, sink
}

func gzipBody(t *testing.T, payload string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(payload)); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return &buf
}

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	deps, sink := newDeps(t, true)
	engine := Setup(deps, logger)

	req := httptest.NewRequest(http.MethodPost, WebhookPath, bytes.NewBufferString(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.WebhookSecretHeader, "hook-secret")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for webhook, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, WebhookPath, gzipBody(t, `{"update_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set(middleware.WebhookSecretHeader, "hook-secret")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for gzip webhook, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, WebhookPath, bytes.NewBufferString(`{"update_id":3}`))
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", resp.Code)
	}

	sink.mu.Lock()
	if len(sink.ids) != 2 || sink.ids[0] != 1 || sink.ids[1] != 2 {
		t.Fatalf("unexpected handled updates: %v", sink.ids)
	}
	sink.mu.Unlock()

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for healthz, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/42", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous audit, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/42", nil)
	req.SetBasicAuth("admin", "pw")
	req.Header.Set("Accept-Encoding", "gzip")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for audit, got %d", resp.Code)
	}
	if resp.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoded audit response")
	}
	if resp.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/by-id/5", nil)
	req.SetBasicAuth("admin", "pw")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"id":5`) {
		t.Fatalf("expected order 5, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestSetupWithoutAuditor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	deps, _ := newDeps(t, false)
	deps.Health = healthStub{err: errors.New("down")}
	engine := Setup(deps, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/42", nil)
	req.SetBasicAuth("admin", "pw")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected audit api to be unmounted, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for failing storage, got %d", resp.Code)
	}
}
