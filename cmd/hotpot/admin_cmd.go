package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/hotpot/internal/admin"
)

func adminCmd() *cobra.Command {
	c := &cobra.Command{Use: "admin", Short: "Manage the admin password"}
	c.AddCommand(adminSetupCmd())
	c.AddCommand(adminCheckCmd())
	c.AddCommand(adminPasswdCmd())
	return c
}

var stdin = bufio.NewReader(os.Stdin)

// readPassword prompts on the terminal without echo. Piped input is
// read one line at a time.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(os.Stdin.Fd()) {
		b, err := term.ReadPassword(os.Stdin.Fd())
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// withGate opens the store and loads the admin gate.
func withGate(ctx context.Context, fn func(ctx context.Context, g *admin.Gate) error) error {
	return withStore(ctx, func(ctx context.Context, s *session) error {
		g := admin.New(s.repo, s.log.Named("admin"))
		if err := g.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, g)
	})
}

func adminSetupCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set the first admin password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGate(cmd.Context(), func(ctx context.Context, g *admin.Gate) error {
				if g.IsSetup() {
					return errors.New("a password is already set; use admin passwd to change it")
				}
				pw := password
				if pw == "" {
					first, err := readPassword("new password: ")
					if err != nil {
						return err
					}
					again, err := readPassword("again: ")
					if err != nil {
						return err
					}
					if first != again {
						return errors.New("passwords do not match")
					}
					pw = first
				}
				if err := g.Setup(ctx, pw); err != nil {
					return err
				}
				fmt.Println("admin password set")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

func adminCheckCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the admin password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGate(cmd.Context(), func(ctx context.Context, g *admin.Gate) error {
				if !g.IsSetup() {
					fmt.Println("no admin password set")
					return nil
				}
				pw := password
				if pw == "" {
					pw = os.Getenv(EnvAdminPassword)
				}
				if pw == "" {
					var err error
					if pw, err = readPassword("password: "); err != nil {
						return err
					}
				}
				if err := g.Login(pw); err != nil {
					return err
				}
				fmt.Println("ok")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

func adminPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the admin password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGate(cmd.Context(), func(ctx context.Context, g *admin.Gate) error {
				old, err := readPassword("current password: ")
				if err != nil {
					return err
				}
				next, err := readPassword("new password: ")
				if err != nil {
					return err
				}
				if err := g.ChangePassword(ctx, old, next); err != nil {
					return err
				}
				fmt.Println("admin password changed")
				return nil
			})
		},
	}
}
