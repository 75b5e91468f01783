// Package device provides CLI commands for working with a single FortiGate
// device outside the server, mainly for verifying credentials before adding
// the device to a configuration file.
package device

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/martinsuchenak/fortimcp/internal/format"
	"github.com/martinsuchenak/fortimcp/internal/fortigate"
	"github.com/paularlott/cli"
	"golang.org/x/term"
)

func Commands() []*cli.Command {
	return []*cli.Command{
		ProbeCommand(),
	}
}

// ProbeCommand tests connectivity and credentials against one device.
func ProbeCommand() *cli.Command {
	return &cli.Command{
		Name:        "probe",
		Usage:       "Probe a FortiGate device",
		Description: "Connect to a FortiGate and verify credentials by fetching system status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Usage:    "FortiGate IP address or hostname",
				Required: true,
			},
			&cli.IntFlag{
				Name:         "port",
				Usage:        "HTTPS port",
				DefaultValue: fortigate.DefaultPort,
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "API token (preferred over username/password)",
				EnvVars: []string{"FORTIMCP_PROBE_TOKEN"},
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "Username for basic authentication (password is prompted)",
			},
			&cli.StringFlag{
				Name:         "vdom",
				Usage:        "Virtual domain",
				DefaultValue: fortigate.DefaultVDOM,
			},
			&cli.BoolFlag{
				Name:         "verify-ssl",
				Usage:        "Verify SSL certificates",
				DefaultValue: false,
			},
			&cli.IntFlag{
				Name:         "timeout",
				Usage:        "Request timeout in seconds",
				DefaultValue: int(fortigate.DefaultTimeout.Seconds()),
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := fortigate.DeviceConfig{
				Host:      cmd.GetString("host"),
				Port:      cmd.GetInt("port"),
				VDOM:      cmd.GetString("vdom"),
				APIToken:  cmd.GetString("api-token"),
				Username:  cmd.GetString("username"),
				VerifySSL: cmd.GetBool("verify-ssl"),
				Timeout:   cmd.GetInt("timeout"),
			}

			if cfg.APIToken == "" && cfg.Username != "" {
				password, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", cfg.Username, cfg.Host))
				if err != nil {
					return err
				}
				cfg.Password = password
			}

			client, err := fortigate.NewClient("probe", cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Probing %s:%d (auth: %s)...\n", cfg.Host, client.Config().Port, client.AuthMethod())

			payload, err := client.GetSystemStatus(ctx, "")
			if err != nil {
				fmt.Println(format.ConnectionTest(cfg.Host, false, err.Error()))
				return err
			}

			fmt.Println(format.ConnectionTest(cfg.Host, true, ""))
			fmt.Println()
			fmt.Println(format.DeviceStatus(cfg.Host, payload))
			return nil
		},
	}
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}
