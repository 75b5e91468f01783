package main

import (
	"context"
	"os"

	"github.com/martinsuchenak/fortimcp/cmd/device"
	"github.com/martinsuchenak/fortimcp/cmd/server"
	"github.com/martinsuchenak/fortimcp/cmd/token"
	"github.com/martinsuchenak/fortimcp/internal/log"
	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	// Initialize structured logging
	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "fortimcp",
		Version:     version,
		Usage:       "FortiGate MCP server",
		Description: "An MCP server exposing multi-device FortiGate firewall management tools over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"FORTIMCP_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"FORTIMCP_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logLevel := cmd.GetString("log-level")
			logFormat := cmd.GetString("log-format")
			log.Configure(logLevel, logFormat)
			return ctx, nil
		},
		Commands: []*cli.Command{
			server.Command(version),
			{
				Name:        "device",
				Usage:       "Device commands",
				Description: "Probe and inspect FortiGate devices outside the server",
				Commands:    device.Commands(),
			},
			{
				Name:        "token",
				Usage:       "Bearer token commands",
				Description: "Generate credentials for the MCP endpoint",
				Commands:    token.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
