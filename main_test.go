package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/calmgames/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Calm Games Server" {
		t.Errorf("Expected app name %q, got %q", "Calm Games Server", AppName)
	}
}

func testOptions(dir string) Options {
	return Options{
		Host:            "localhost",
		Port:            8080,
		ConfigDir:       dir,
		LogLevel:        "info",
		LogFormat:       "console",
		SessionMaxAge:   time.Hour,
		CleanupInterval: time.Minute,
	}
}

func TestInitializeServices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := initializeServices(ctx, testOptions(t.TempDir()), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.sessions.Close()

	if a.service == nil || a.hub == nil {
		t.Fatal("Expected service and hub to be initialized")
	}

	// An empty config directory still serves the built-in presets.
	info, err := a.service.CreateSession(ctx, "memory")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.Kind != "memory" {
		t.Errorf("Expected memory session, got %q", info.Kind)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, err := initializeServices(context.Background(), testOptions("/non/existent/path"), zap.NewNop())
	if err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestOptionsAddr(t *testing.T) {
	opts := Options{Host: "0.0.0.0", Port: 9090}
	if got := opts.Addr(); got != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestCommandDefaults(t *testing.T) {
	cmd := newCommand()

	var got Options
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		got = optionsFrom(c)
		return nil
	}
	if err := cmd.Run(context.Background(), []string{"calmgames"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", got.Port)
	}
	if got.Host == "" || got.ConfigDir == "" {
		t.Errorf("Host and config dir should have defaults: %+v", got)
	}
	if got.SessionMaxAge != 24*time.Hour {
		t.Errorf("Expected 24h session max age, got %v", got.SessionMaxAge)
	}
}

func TestCommandFlagsFromEnv(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("LOG_FORMAT", "json")

	cmd := newCommand()
	var got Options
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		got = optionsFrom(c)
		return nil
	}
	if err := cmd.Run(context.Background(), []string{"calmgames", "--host", "127.0.0.1"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.Port != 9191 {
		t.Errorf("Expected port from env, got %d", got.Port)
	}
	if got.LogFormat != "json" {
		t.Errorf("Expected log format from env, got %q", got.LogFormat)
	}
	if got.Host != "127.0.0.1" {
		t.Errorf("Expected host from flag, got %q", got.Host)
	}
}

func TestMCPEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := initializeServices(ctx, testOptions(t.TempDir()), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.sessions.Close()

	// The MCP client proxies to the same router it is mounted on.
	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	defer ts.Close()
	handler = a.newRouter(mcp.NewClient(ts.URL))

	resp, err := http.Get(ts.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /mcp: expected 405, got %d", resp.StatusCode)
	}

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_session","arguments":{"config_id":"puzzle"}}}`)
	resp, err = http.Post(ts.URL+"/mcp", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var rpc struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rpc.Result.IsError || len(rpc.Result.Content) == 0 {
		t.Fatalf("unexpected MCP result: %+v", rpc.Result)
	}
	if n := len(a.sessions.List()); n != 1 {
		t.Errorf("Expected 1 session after create_session, got %d", n)
	}
}

func TestExternalAPIAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if !externalAPIAvailable(context.Background(), ts.URL) {
		t.Error("Expected running server to be available")
	}
	ts.Close()
	if externalAPIAvailable(context.Background(), ts.URL) {
		t.Error("Expected closed server to be unavailable")
	}
}
