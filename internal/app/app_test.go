package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pizzeria/internal/config"
	testhelpers "github.com/polkiloo/pizzeria/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPServer(t *testing.T) {
	router := gin.New()
	server := newHTTPServer(serverParams{
		Config: &config.Config{RunAddress: ":9999"},
		Router: router,
		Logger: discardLogger(),
	})

	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatal("expected the gin engine to serve requests")
	}
	if server.ReadHeaderTimeout != readHeaderTimeout {
		t.Fatalf("expected header timeout %s, got %s", readHeaderTimeout, server.ReadHeaderTimeout)
	}
	if server.ErrorLog == nil {
		t.Fatal("expected server errors to be routed to the logger")
	}
}

func newLifecycle(addr string) (*testhelpers.LifecycleRecorder, *testhelpers.ShutdownerStub, *http.Server) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: addr, Handler: router}
	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     discardLogger(),
		Server:     server,
		Config:     &config.Config{ShutdownTimeout: 200 * time.Millisecond},
	})
	return recorder, shutdowner, server
}

func TestLifecycleServesUntilStopped(t *testing.T) {
	recorder, shutdowner, server := newLifecycle("127.0.0.1:0")
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook, got %d", len(recorder.Hooks))
	}
	hook := recorder.Hooks[0]

	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start: %v", err)
	}
	if server.Addr == "127.0.0.1:0" {
		t.Fatal("expected the bound address to replace the ephemeral one")
	}

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get("http://" + server.Addr + "/healthz")
	if err != nil {
		t.Fatalf("request to running server: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if err := hook.OnStop(context.Background()); err != nil {
		t.Fatalf("on stop: %v", err)
	}
	if _, err := client.Get("http://" + server.Addr + "/healthz"); err == nil {
		t.Fatal("expected server to refuse requests after stop")
	}

	select {
	case <-shutdowner.Called:
		t.Fatal("graceful stop must not request application shutdown")
	default:
	}
}

func TestLifecycleFailsStartOnBadAddress(t *testing.T) {
	recorder, shutdowner, _ := newLifecycle("bad addr")

	err := recorder.Hooks[0].OnStart(context.Background())
	if err == nil {
		t.Fatal("expected start to fail for an invalid address")
	}
	var opErr interface{ Timeout() bool }
	if !errors.As(err, &opErr) {
		t.Fatalf("expected wrapped network error, got %v", err)
	}
	select {
	case <-shutdowner.Called:
		t.Fatal("a failed start is reported by fx, not by the shutdowner")
	default:
	}
}

func TestLifecycleStopHonoursDeadline(t *testing.T) {
	recorder, _, _ := newLifecycle("127.0.0.1:0")
	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hook.OnStop(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("on stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected stop to finish within the caller deadline")
	}
}

func TestShutdownerStubRecordsCall(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second call must not block on the full channel.
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}
