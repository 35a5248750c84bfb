package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/teamfund/internal/services/teamfund/api/httpapi"
	"github.com/louisbranch/teamfund/internal/services/teamfund/session"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage/sqlite"
)

func testAPIConfig(t *testing.T) httpapi.Config {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "teamfund.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	verifier, err := session.NewVerifier(session.Config{Secret: []byte("secret")})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return httpapi.Config{Store: store, Sessions: verifier}
}

func TestNewServerRequiresAddress(t *testing.T) {
	if _, err := NewServer(context.Background(), Config{API: testAPIConfig(t)}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestNewServerRequiresAPIDependencies(t *testing.T) {
	if _, err := NewServer(context.Background(), Config{HTTPAddr: "127.0.0.1:0"}); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestNilServer(t *testing.T) {
	var s *Server
	if err := s.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
	s.Close()
	if s.Handler() != nil {
		t.Fatal("expected nil handler")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	server, err := NewServer(context.Background(), Config{HTTPAddr: "127.0.0.1:0", API: testAPIConfig(t)})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + httpapi.Health
	var res *http.Response
	for attempt := 0; attempt < 50; attempt++ {
		res, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
