// Command warehouse starts the Warehouse Robot server.
//
// It supports these commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – runs a scenario's scripted moves and prints the GPS sum
//  4. "play" – drives a scenario from the terminal
//  5. "watch" – follows a session's live updates from a running server
//
// Flags and their environment variables control host/port, config and session
// directories, debug logging, and optional ngrok tunneling for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/warehouse/api"
	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/puzzle"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/transport/mcp"
	"github.com/wricardo/mcp-training/warehouse/transport/stream"
	"github.com/wricardo/mcp-training/warehouse/transport/websocket"
	"github.com/wricardo/mcp-training/warehouse/tui"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Warehouse Robot Server"
)

// options is the resolved process configuration shared by every command
type options struct {
	host        string
	port        int
	configDir   string
	sessionsDir string
	debug       bool

	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:         cmd.String("host"),
		port:         int(cmd.Int("port")),
		configDir:    cmd.String("config-dir"),
		sessionsDir:  cmd.String("sessions-dir"),
		debug:        cmd.Bool("debug"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newApp builds the command tree. Command output goes to stdout; logs go to the standard logger.
func newApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "warehouse",
		Usage:   AppName,
		Version: Version,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing warehouse scenarios",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for persisted sessions",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server if needed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "External API server to reuse when it is running",
						Sources: cli.EnvVars("API_URL"),
					},
				},
				Action: mcpAction,
			},
			{
				Name:      "solve",
				Usage:     "Run a scenario's scripted moves and print the GPS sum",
				ArgsUsage: "<file|config>",
				Flags: []cli.Flag{
					newWideFlag(),
					&cli.BoolFlag{
						Name:  "both",
						Usage: "Print the GPS sum for the single- and double-width warehouse",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return solveAction(stdout, cmd)
				},
			},
			{
				Name:      "play",
				Usage:     "Drive the robot from the terminal",
				ArgsUsage: "[file|config]",
				Flags:     []cli.Flag{newWideFlag()},
				Action:    playAction,
			},
			{
				Name:  "watch",
				Usage: "Print a session's updates as they happen",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "session",
						Usage:    "Session ID to follow",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "Server to connect to",
						Sources: cli.EnvVars("API_URL"),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return watchAction(ctx, stdout, cmd)
				},
			},
		},
	}
}

func newWideFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "wide",
		Usage: "Widen the warehouse so every crate is two cells wide",
	}
}

// main loads .env, then runs the selected command
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	setupLogging(opts.debug)
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	gameService, sessions, err := initializeServices(opts.configDir, opts.sessionsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return runHTTPServer(ctx, gameService, sessions, opts)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	setupLogging(opts.debug)
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	gameService, _, err := initializeServices(opts.configDir, opts.sessionsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return runStdioMCPWithInternalServer(ctx, gameService, cmd.String("api-url"))
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, sessions *session.Manager, opts options) error {
	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Create API server
	apiServer := api.NewServer(gameService, hub)

	addr := opts.addr()

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	apiServer.Handle("/mcp", mcpHTTPHandler(mcpClient.GetMCPServer()), "POST")

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown context
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, apiServer, opts)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("Shutting down...")
	case runErr = <-serverErr:
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	stop()
	wg.Wait()

	if err := sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: Failed to save sessions on shutdown: %v", err)
	}

	log.Println("Server stopped")
	return runErr
}

// mcpHTTPHandler serves single JSON-RPC messages posted to /mcp
func mcpHTTPHandler(mcpServer *server.MCPServer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts options) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires session/config managers and the game service.
// It also starts background routines that prune stale and orphaned sessions.
func initializeServices(configDir, sessionsDir string) (service.GameService, *session.Manager, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(sessionsDir, configManager)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	gameService := service.NewGameService(sessionManager, configManager)

	go sessionCleanupRoutine(sessionManager)
	go filesystemSyncRoutine(sessionManager)

	return gameService, sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed := manager.CleanupExpiredSessions(24 * time.Hour)
		if removed > 0 {
			log.Printf("Cleaned up %d expired sessions", removed)
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their files are deleted
func filesystemSyncRoutine(manager *session.Manager) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if pruned := manager.PruneOrphans(); pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses the external API at externalURL when it answers; otherwise it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, externalURL string) error {
	baseURL := externalURL

	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	req, err := http.NewRequestWithContext(ctx, "GET", externalURL+"/api/health", nil)
	if err == nil {
		resp, err = testClient.Do(req)
	}
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Shutdown(context.Background())

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// loadScenario resolves a command argument: an existing file is read directly,
// anything else is looked up in the config directory. An empty name picks the default.
func loadScenario(configDir, name string) (*engine.ScenarioConfig, error) {
	if info, err := os.Stat(name); name != "" && err == nil && !info.IsDir() {
		switch filepath.Ext(name) {
		case ".json", ".hcl", ".txt":
			return config.LoadFile(name)
		}
		p, err := puzzle.ParseFile(name)
		if err != nil {
			return nil, err
		}
		return p.Config(), nil
	}

	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}

func solveAction(w io.Writer, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("solve takes exactly one scenario file or config name")
	}

	cfg, err := loadScenario(cmd.String("config-dir"), cmd.Args().First())
	if err != nil {
		return err
	}

	both := cmd.Bool("both")
	if both || !cmd.Bool("wide") {
		score, err := engine.SolveScenario(cfg, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "GPS sum: %d\n", score)
	}
	if both || cmd.Bool("wide") {
		score, err := engine.SolveScenario(cfg, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "GPS sum (wide): %d\n", score)
	}
	return nil
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadScenario(cmd.String("config-dir"), cmd.Args().First())
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(cfg, cmd.Bool("wide"))
	if err != nil {
		return err
	}
	return tui.Play(eng)
}

func watchAction(ctx context.Context, w io.Writer, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID := cmd.String("session")
	watcher := stream.NewWatcher(cmd.String("api-url"))

	fmt.Fprintf(w, "Watching session %s (Ctrl-C to stop)\n", sessionID)
	return watcher.Watch(ctx, sessionID, func(msg *websocket.Message) error {
		return printUpdate(w, msg)
	})
}

// printUpdate writes one live update; a deleted session ends the watch
func printUpdate(w io.Writer, msg *websocket.Message) error {
	if msg.Event == websocket.EventSessionDeleted {
		fmt.Fprintf(w, "Session %s was deleted\n", msg.SessionID)
		return stream.ErrStop
	}

	state := msg.GameState
	if state == nil || state.Grid == nil {
		return nil
	}

	fmt.Fprintf(w, "\n%s\nGPS: %d  Robot: %s  Moves: %d\n", state.Grid, state.Score, state.RobotPos, state.TotalMoves)
	if state.Message != "" {
		fmt.Fprintln(w, state.Message)
	}
	return nil
}
