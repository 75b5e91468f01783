// Package token provides CLI commands for managing the server's bearer
// token. Hashing the token lets the configuration file carry a bcrypt hash
// instead of the plain secret.
package token

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/paularlott/cli"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func Commands() []*cli.Command {
	return []*cli.Command{
		HashCommand(),
	}
}

// HashCommand reads a token without echo and prints its bcrypt hash.
func HashCommand() *cli.Command {
	return &cli.Command{
		Name:        "hash",
		Usage:       "Hash a bearer token",
		Description: "Read a bearer token from the terminal and print a bcrypt hash suitable for the auth section of the configuration file",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:         "cost",
				Usage:        "bcrypt cost factor",
				DefaultValue: bcrypt.DefaultCost,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Fprint(os.Stderr, "Token: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading token: %w", err)
			}
			if len(raw) == 0 {
				return fmt.Errorf("token must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword(raw, cmd.GetInt("cost"))
			if err != nil {
				return fmt.Errorf("hashing token: %w", err)
			}

			fmt.Println(string(hash))
			return nil
		},
	}
}
