package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeServer mimics the session endpoints: it issues incrementing refresh
// ids and accepts only the most recent one.
type fakeServer struct {
	t       *testing.T
	current string
	seq     int
}

func (f *fakeServer) issue(w http.ResponseWriter) {
	f.seq++
	f.current = fmt.Sprintf("ref-%d", f.seq)
	http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: f.current, Path: "/api", HttpOnly: true, MaxAge: 3600})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "acc-" + f.current})
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Login == "taken" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.issue(w)
	})
	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(refreshCookieName)
		if err != nil || c.Value != f.current {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.issue(w)
	})
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer acc-"+f.current {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "u1"})
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	fs := &fakeServer{t: t}
	srv := httptest.NewServer(fs.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second), fs
}

func TestRegister(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if err := c.Register(ctx, "alice", []byte("pw")); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := c.Register(ctx, "taken", []byte("pw")); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestLoginRefreshWhoami(t *testing.T) {
	c, fs := newTestClient(t)
	ctx := context.Background()

	if err := c.Login(ctx, "alice", []byte("correct")); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if !c.HasSession() {
		t.Fatalf("session must be held after login")
	}

	first := fs.current
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if fs.current == first {
		t.Fatalf("server did not rotate")
	}

	// The client must have picked up the rotated id.
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("second Refresh error: %v", err)
	}

	id, err := c.Whoami(ctx)
	if err != nil {
		t.Fatalf("Whoami error: %v", err)
	}
	if id != "u1" {
		t.Fatalf("user id = %q", id)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Login(context.Background(), "alice", []byte("wrong"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if c.HasSession() {
		t.Fatalf("no session may be held after failed login")
	}
}

func TestRefresh_DeadSessionDropsTokens(t *testing.T) {
	c, fs := newTestClient(t)
	ctx := context.Background()

	if err := c.Login(ctx, "alice", []byte("correct")); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	// Someone else rotates; our id is now stale.
	fs.current = "ref-stolen"

	if err := c.Refresh(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if c.HasSession() {
		t.Fatalf("tokens must be dropped after a dead refresh")
	}
}

func TestLogout(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if err := c.Login(ctx, "alice", []byte("correct")); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if c.HasSession() {
		t.Fatalf("session must be gone after logout")
	}
}

func TestUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	err := c.Login(context.Background(), "alice", []byte("correct"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
