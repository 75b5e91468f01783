package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martinsuchenak/fortimcp/internal/audit"
	"github.com/martinsuchenak/fortimcp/internal/config"
	"github.com/martinsuchenak/fortimcp/internal/fortigate"
	"github.com/martinsuchenak/fortimcp/internal/log"
	"github.com/martinsuchenak/fortimcp/internal/mcp"
	"github.com/martinsuchenak/fortimcp/internal/monitor"
	"github.com/paularlott/cli"
)

const shutdownTimeout = 10 * time.Second

// ServerConfig holds the wired components for running the server.
type ServerConfig struct {
	Config    *config.Config
	Registry  *fortigate.Registry
	Trail     *audit.Store // may be nil
	Monitor   *monitor.Monitor
	MCPServer *mcp.Server
	Version   string
}

// RunServer starts the MCP HTTP server and blocks until shutdown.
func RunServer(cfg *ServerConfig) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    cfg.Config.Server.ListenAddr,
		Handler: mux,
	}

	if cfg.Monitor != nil {
		if err := cfg.Monitor.Start(); err != nil {
			return err
		}
		defer cfg.Monitor.Stop()
	}

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed, closing", "error", err)
			server.Close()
		}
	}()

	log.Info("Starting FortiGate MCP server", "addr", cfg.Config.Server.ListenAddr)
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.Server.ListenAddr+"/mcp")
	log.Info("Devices configured", "count", len(cfg.Registry.List()))
	cfg.MCPServer.LogStartup()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

func Command(version string) *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the FortiGate MCP server",
		Description: "Start the HTTP server exposing FortiGate management tools over MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "config",
				Usage:        "Path to the YAML configuration file",
				DefaultValue: "",
				EnvVars:      []string{"FORTIMCP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "listen-addr",
				Usage:   "Listen address override (e.g., :8814)",
				EnvVars: []string{"FORTIMCP_LISTEN_ADDR"},
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token override for MCP authentication (plain or bcrypt hash)",
				EnvVars: []string{"FORTIMCP_AUTH_TOKEN"},
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.GetString("config"))
			if err != nil {
				log.Error("Failed to load configuration", "error", err)
				return err
			}
			if addr := cmd.GetString("listen-addr"); addr != "" {
				cfg.Server.ListenAddr = addr
			}
			if token := cmd.GetString("auth-token"); token != "" {
				cfg.Auth.BearerToken = token
			}

			log.Configure(cfg.Logging.Level, cfg.Logging.Format)
			log.Info("Configuration loaded", "devices", len(cfg.Devices), "listen_addr", cfg.Server.ListenAddr)

			registry, err := fortigate.NewRegistryFromConfig(cfg.Devices)
			if err != nil {
				log.Error("Failed to initialize device registry", "error", err)
				return err
			}

			var trail *audit.Store
			if cfg.Audit.Enabled {
				trail, err = audit.Open(cfg.Audit.DataDir)
				if err != nil {
					log.Error("Failed to open audit trail", "error", err)
					return err
				}
				defer trail.Close()
				log.Info("Audit trail initialized", "data_dir", cfg.Audit.DataDir)
			}

			var mon *monitor.Monitor
			if cfg.Monitor.Enabled {
				mon = monitor.New(registry, trail, cfg.Monitor.Schedule)
			}

			mcpServer := mcp.NewServer(registry, trail, cfg.Server.Name, version, cfg.Auth.BearerToken)

			return RunServer(&ServerConfig{
				Config:    cfg,
				Registry:  registry,
				Trail:     trail,
				Monitor:   mon,
				MCPServer: mcpServer,
				Version:   version,
			})
		},
	}
}
