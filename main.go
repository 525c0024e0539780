// Command merge-puzzle starts the Structure Merge game server.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "replay" – applies a command file to a level offline and prints the result
//
// Flags control host/port, level and output directories, debug logging,
// and optional ngrok tunneling for easy external access during development.
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
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
	"github.com/wricardo/merge-puzzle-game/api"
	"github.com/wricardo/merge-puzzle-game/game/config"
	"github.com/wricardo/merge-puzzle-game/game/service"
	"github.com/wricardo/merge-puzzle-game/game/session"
	"github.com/wricardo/merge-puzzle-game/transport/mcp"
	"github.com/wricardo/merge-puzzle-game/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Structure Merge Game Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = 1 * time.Hour
	syncInterval    = 5 * time.Second
)

// main loads .env, then runs the selected command until it returns or a
// shutdown signal arrives.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

// newApp builds the command tree. Output of the offline commands goes to out.
func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "merge-puzzle",
		Usage:   AppName,
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "level-dir",
				Value:   "levels",
				Usage:   "Directory containing level files (*.in) and an optional rules.json",
				Sources: cli.EnvVars("LEVEL_DIR"),
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Value:   "outputs",
				Usage:   "Directory where session command logs (*.out) are saved",
				Sources: cli.EnvVars("OUTPUT_DIR"),
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
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, with an internal HTTP server when none is running",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log.Printf("Starting %s v%s (mode: stdio-mcp)", AppName, Version)
					gameService, err := initializeServices(ctx, cmd.String("level-dir"), cmd.String("output-dir"))
					if err != nil {
						return fmt.Errorf("failed to initialize services: %w", err)
					}
					return runStdioMCPWithInternalServer(ctx, gameService, int(cmd.Int("port")))
				},
			},
			replayCommand(),
		},
	}
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	gameService, err := initializeServices(ctx, cmd.String("level-dir"), cmd.String("output-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	return runHTTPServer(ctx, gameService, serverOptions{
		addr:        fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port"))),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	})
}

type serverOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newRouter mounts the REST API at the root and the MCP proxy at /mcp
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// mcpHandler serves one JSON-RPC message per POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
	}
}

// runHTTPServer serves until ctx is cancelled, then shuts down gracefully.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, opts serverOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	mainRouter := newRouter(gameService, hub, fmt.Sprintf("http://%s", opts.addr))

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", opts.addr)
		log.Printf("REST API: http://%s/api", opts.addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", opts.addr)
		log.Printf("MCP endpoint: http://%s/mcp", opts.addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, opts)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is cancelled
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts serverOptions) {
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

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the level and session managers into the game
// service. Background cleanup and sync routines run until ctx is cancelled.
func initializeServices(ctx context.Context, levelDir, outputDir string) (service.GameService, error) {
	levelManager, err := config.NewManager(levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(outputDir, levelManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	gameService := service.NewGameService(sessionManager, levelManager)

	go sessionCleanupRoutine(ctx, sessionManager)
	go filesystemSyncRoutine(ctx, sessionManager, persistence)

	return gameService, nil
}

// sessionCleanupRoutine periodically drops sessions that have not been
// accessed within sessionMaxAge. Their saved outputs stay on disk.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.Printf("[SESSION] Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically removes sessions from memory whose
// output file was deleted from disk.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncWithFilesystem(manager, persistence)
		}
	}
}

func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Printf("[SESSION] Pruned session %s from memory (file deleted)", sess.ID)
		}
	}

	if pruned > 0 {
		log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on localhost:port; otherwise it starts
// an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, port int) error {
	externalURL := fmt.Sprintf("http://localhost:%d", port)
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if !apiAvailable(externalURL) {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)

		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		log.Println("MCP stdio server ready (using internal HTTP server)")
	} else {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		log.Println("MCP stdio server ready (using external HTTP server)")
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a game API answers its health check at baseURL
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
