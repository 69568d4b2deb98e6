package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(opts *options) *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the management API",
		Long:  "Exchange a username and password for a session token and save the session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if username == "" {
				fmt.Fprint(out, "Username: ")
				line, err := in.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}

			password, err := readPassword(cmd, in, passwordStdin)
			if err != nil {
				return err
			}

			store, cleanup, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := store.Login(cmd.Context(), goConsole.Credentials{Username: username, Password: password})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			role := "operator"
			if id.IsAdmin {
				role = "administrator"
			}
			fmt.Fprintf(out, "Logged in as %s (%s)\n", id.Username, role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	return cmd
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line from in.
func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Long:  "Clear the saved token and profile. The server is not contacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if !store.IsAuthenticated() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			user, ok := store.CurrentUser()
			if !ok {
				fmt.Fprintln(out, "Logged in (no profile saved)")
				return nil
			}
			fmt.Fprintf(out, "Username: %s\nAdmin:    %t\n", user.Username, store.IsAdmin())
			return nil
		},
	}
}
