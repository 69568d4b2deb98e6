package cli

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrEthical07/goConsole/internal/mockapi"
	"github.com/MrEthical07/goConsole/internal/rate"
	"github.com/MrEthical07/goConsole/token"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newMockAPICmd(opts *options) *cobra.Command {
	var (
		listen   string
		secret   string
		ttl         time.Duration
		accounts    []string
		maxAttempts int
	)

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Serve a local stand-in for the management API",
		Long: "Serve the token, health and current-user endpoints for local testing.\n" +
			"Accounts are given as username:password or username:password:admin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAccounts(accounts)
			if err != nil {
				return err
			}
			key := []byte(secret)
			if len(key) == 0 {
				key = make([]byte, 32)
				if _, err := rand.Read(key); err != nil {
					return fmt.Errorf("generate secret: %w", err)
				}
			}
			issuer, err := token.NewIssuer(token.IssuerConfig{Secret: key, TTL: ttl, Issuer: "goconsole-mock"})
			if err != nil {
				return err
			}
			conf := mockapi.Config{Issuer: issuer, Accounts: parsed, Logger: opts.logger}
			if maxAttempts > 0 {
				if opts.redisAddr == "" {
					return errors.New("--max-attempts needs --redis-addr")
				}
				client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{opts.redisAddr}})
				defer client.Close()
				conf.Attempts, err = rate.New(client, rate.Config{
					MaxAttempts:      maxAttempts,
					Window:           time.Minute,
					EnableIPThrottle: true,
				})
				if err != nil {
					return err
				}
			}
			api, err := mockapi.New(conf)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: listen, Handler: api, ReadHeaderTimeout: 5 * time.Second}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			fmt.Fprintf(cmd.OutOrStdout(), "mock management API listening on %s\n", listen)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8000", "Listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (random if empty)")
	cmd.Flags().DurationVar(&ttl, "token-ttl", 30*time.Minute, "Issued token lifetime")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Failed logins per minute before answering 429 (needs --redis-addr; 0 disables)")
	cmd.Flags().StringArrayVar(&accounts, "account", []string{"admin:admin:admin", "operator:operator"}, "Account as user:password[:admin] (repeatable)")
	return cmd
}

func parseAccounts(specs []string) ([]mockapi.Account, error) {
	out := make([]mockapi.Account, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid account %q: want user:password[:admin]", spec)
		}
		a := mockapi.Account{Username: parts[0], Password: parts[1]}
		if len(parts) == 3 {
			if parts[2] != "admin" {
				return nil, fmt.Errorf("invalid account %q: third field must be \"admin\"", spec)
			}
			a.IsAdmin = true
		}
		out = append(out, a)
	}
	return out, nil
}
