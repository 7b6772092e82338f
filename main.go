// Command calmgames starts the Calm Games server.
//
// It supports two commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket
//     watchers, Prometheus metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if
//     none is available
//
// Every flag can also be set through its environment variable, and a .env file
// in the working directory is loaded when present.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/calmgames/api"
	"github.com/wricardo/mcp-training/calmgames/game/config"
	"github.com/wricardo/mcp-training/calmgames/game/service"
	"github.com/wricardo/mcp-training/calmgames/game/session"
	"github.com/wricardo/mcp-training/calmgames/logging"
	"github.com/wricardo/mcp-training/calmgames/transport/mcp"
	"github.com/wricardo/mcp-training/calmgames/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Calm Games Server"
)

const externalAPIURL = "http://localhost:8080"

// Options is the process configuration collected from flags and environment.
type Options struct {
	Host            string
	Port            int
	ConfigDir       string
	LogLevel        string
	LogFormat       string
	SessionMaxAge   time.Duration
	CleanupInterval time.Duration
	NgrokEnabled    bool
	NgrokAuthToken  string
	NgrokDomain     string
}

// Addr returns host:port for the HTTP listener.
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// app holds the wired services shared by both commands.
type app struct {
	opts     Options
	logger   *zap.Logger
	sessions *session.Manager
	service  service.GameService
	hub      *websocket.Hub
}

func main() {
	// Missing .env is fine; anything else is worth a warning on stderr.
	envErr := godotenv.Load()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", envErr)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.StringFlag{Name: "log-format", Value: "console", Usage: "console or json", Sources: cli.EnvVars("LOG_FORMAT")},
		&cli.DurationFlag{Name: "session-max-age", Value: 24 * time.Hour, Usage: "remove sessions idle for longer than this", Sources: cli.EnvVars("SESSION_MAX_AGE")},
		&cli.DurationFlag{Name: "cleanup-interval", Value: time.Hour, Usage: "how often idle sessions are pruned", Sources: cli.EnvVars("CLEANUP_INTERVAL")},
		&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

// newCommand builds the CLI. Running it without a subcommand starts the HTTP
// server.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "calmgames",
		Usage:   AppName,
		Version: Version,
		Flags:   globalFlags(),
		Action:  serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server backed by the REST API",
				Action:  stdioAction,
			},
		},
	}
}

func optionsFrom(cmd *cli.Command) Options {
	return Options{
		Host:            cmd.String("host"),
		Port:            int(cmd.Int("port")),
		ConfigDir:       cmd.String("config-dir"),
		LogLevel:        cmd.String("log-level"),
		LogFormat:       cmd.String("log-format"),
		SessionMaxAge:   cmd.Duration("session-max-age"),
		CleanupInterval: cmd.Duration("cleanup-interval"),
		NgrokEnabled:    cmd.Bool("ngrok"),
		NgrokAuthToken:  cmd.String("ngrok-auth"),
		NgrokDomain:     cmd.String("ngrok-domain"),
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	logger, err := logging.New(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeServices(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer a.sessions.Close()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "server"))
	return a.runHTTPServer(ctx)
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	// stdout carries the MCP protocol, so logs always go to stderr as JSON.
	logger, err := logging.New(opts.LogLevel, "json")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := initializeServices(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer a.sessions.Close()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "stdio-mcp"))
	return a.runStdioMCPWithInternalServer(ctx)
}

// initializeServices wires the config and session managers, the game service
// and the websocket hub. Deferred memory resolutions are pushed to the
// session's watchers through the hub.
func initializeServices(ctx context.Context, opts Options, logger *zap.Logger) (*app, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessions := session.NewManager(session.WithLogger(logger))
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	sessions.OnAsyncChange(func(s *service.Session, event string) {
		state := s.State()
		hub.BroadcastToSession(s.ID, state)
		switch event {
		case service.EventResolved:
			hub.BroadcastEvent(s.ID, websocket.EventResolved, state)
		case service.EventFinished:
			hub.BroadcastEvent(s.ID, websocket.EventFinished, state)
		}
	})

	if opts.CleanupInterval > 0 && opts.SessionMaxAge > 0 {
		go sessions.RunCleanup(ctx, opts.CleanupInterval, opts.SessionMaxAge)
	}

	return &app{
		opts:     opts,
		logger:   logger,
		sessions: sessions,
		service:  service.NewGameService(sessions, configManager),
		hub:      hub,
	}, nil
}

// newRouter mounts the API server and the /mcp proxy endpoint.
func (a *app) newRouter(mcpClient *mcp.Client) http.Handler {
	apiServer := api.NewServer(a.service, a.hub, a.logger)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves until ctx is cancelled, then shuts down gracefully.
// If ngrok is enabled it also provisions a public tunnel.
func (a *app) runHTTPServer(ctx context.Context) error {
	addr := a.opts.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := a.newRouter(mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		a.logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)),
			zap.String("metrics", fmt.Sprintf("http://%s/metrics", addr)),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if a.opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runNgrok(ctx, handler)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	a.logger.Info("server stopped")
	return runErr
}

func (a *app) runNgrok(ctx context.Context, handler http.Handler) {
	if a.opts.NgrokAuthToken == "" {
		a.logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if a.opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(a.opts.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(a.opts.NgrokAuthToken))
	if err != nil {
		a.logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			a.logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	a.logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"),
	)

	// Serve returns once the tunnel closes; close it when ctx ends.
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		a.logger.Warn("ngrok server error", zap.Error(err))
	}
	a.logger.Info("ngrok tunnel closed")
}

// externalAPIAvailable reports whether a server already answers at baseURL.
func externalAPIAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an
// external API at localhost:8080 when one answers; otherwise it starts an
// internal HTTP API on a random loopback port and targets that.
func (a *app) runStdioMCPWithInternalServer(ctx context.Context) error {
	baseURL := externalAPIURL

	if externalAPIAvailable(ctx, externalAPIURL) {
		a.logger.Info("using external API server", zap.String("url", externalAPIURL))
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		httpServer := &http.Server{Handler: api.NewServer(a.service, a.hub, a.logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		a.logger.Info("started internal HTTP server for MCP stdio", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	a.logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
