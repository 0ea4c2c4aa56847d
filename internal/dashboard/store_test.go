package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JaimeStill/churnstudio/internal/dashboard"
	"github.com/JaimeStill/churnstudio/internal/operation"
	"github.com/JaimeStill/churnstudio/pkg/lifecycle"
)

func newStore(ttl time.Duration) *dashboard.Store {
	return dashboard.NewStore(dashboard.StoreConfig{
		CookieName:     "sid",
		TTL:            ttl,
		DefaultBaseURL: "http://backend:8000",
	}, discardLogger())
}

func TestStoreResolveSetsCookie(t *testing.T) {
	store := newStore(time.Minute)

	rec := httptest.NewRecorder()
	s := store.Resolve(rec, httptest.NewRequest("GET", "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sid" || c.Value != s.ID || !c.HttpOnly {
		t.Errorf("unexpected cookie %+v", c)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: s.ID})
	rec = httptest.NewRecorder()

	again := store.Resolve(rec, req)
	if again != s {
		t.Error("expected the same session for the same cookie")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing session should not reset the cookie")
	}
}

func TestStoreResolveUnknownCookieCreates(t *testing.T) {
	store := newStore(time.Minute)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "not-a-uuid"})

	s := store.Resolve(httptest.NewRecorder(), req)
	if s.ID == "not-a-uuid" {
		t.Error("unknown session id should not be adopted")
	}
	if store.Len() != 1 {
		t.Errorf("expected one session, got %d", store.Len())
	}
}

func TestStoreLookup(t *testing.T) {
	store := newStore(time.Minute)
	s := store.Create()

	got, err := store.Lookup(s.ID)
	if err != nil || got != s {
		t.Fatalf("Lookup: got %v, %v", got, err)
	}

	if _, err := store.Lookup("6f1c1b9e-0000-4000-8000-000000000000"); !errors.Is(err, dashboard.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreSweepExpiresIdleSessions(t *testing.T) {
	store := newStore(20 * time.Millisecond)
	s := store.Create()

	ctx, _ := s.Single.Begin(context.Background())

	time.Sleep(40 * time.Millisecond)
	fresh := store.Create()

	if n := store.Sweep(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, err := store.Lookup(s.ID); !errors.Is(err, dashboard.ErrSessionNotFound) {
		t.Error("expired session should be gone")
	}
	if _, err := store.Lookup(fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("evicted session's call should be cancelled")
	}
	if s.Single.Snapshot().Status != operation.Idle {
		t.Error("evicted session should be reset")
	}
}

func TestStoreStartSweepsUntilShutdown(t *testing.T) {
	store := newStore(10 * time.Millisecond)
	store.Create()

	lc := lifecycle.New()
	store.Start(lc, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not evict the idle session")
		}
		time.Sleep(5 * time.Millisecond)
	}

	store.Create()
	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("shutdown should close every session, %d left", store.Len())
	}
}
