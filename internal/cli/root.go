// Package cli implements the goconsole command line: a terminal front end
// for the console session, sharing the store, route guard and health probe
// with the web console.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/MrEthical07/goConsole/router"
	"github.com/MrEthical07/goConsole/storage"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	server      string
	stateFile   string
	stateDB     string
	redisAddr   string
	redisPrefix string
	routes      string
	logLevel    string
	logFormat   string

	logger *slog.Logger
}

// defaultServer returns the API origin, checking GOCONSOLE_SERVER first.
func defaultServer() string {
	if s := os.Getenv("GOCONSOLE_SERVER"); s != "" {
		return s
	}
	return goConsole.DefaultConfig().API.BaseURL
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".goconsole-session.json"
	}
	return filepath.Join(home, ".goconsole", "session.json")
}

// NewRootCmd creates the root cobra command for the goconsole CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "goconsole",
		Short: "Stream server management console",
		Long:  "goconsole signs in to the stream management API and checks which console pages the session may open.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.NewWithWriter(logging.ParseLevel(opts.logLevel), opts.logFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.server, "server", defaultServer(), "Management API URL (or GOCONSOLE_SERVER env)")
	pf.StringVar(&opts.stateFile, "state-file", defaultStateFile(), "File the session is persisted in")
	pf.StringVar(&opts.stateDB, "state-db", "", "Persist the session in this SQLite database instead of the state file")
	pf.StringVar(&opts.redisAddr, "redis-addr", "", "Persist the session in Redis at this address instead of the state file")
	pf.StringVar(&opts.redisPrefix, "redis-prefix", "gc", "Key prefix for Redis, or namespace for SQLite, persistence")
	pf.StringVar(&opts.routes, "routes", "", "YAML route table (built-in console routes if empty)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newNavigateCmd(opts),
		newStatusCmd(opts),
		newRoutesCmd(opts),
		newMockAPICmd(opts),
	)
	return root
}

// openStore builds a store on the configured persistence and restores the
// saved session. The returned cleanup closes the store and its backend.
func (o *options) openStore(ctx context.Context) (*goConsole.Store, func(), error) {
	var (
		backend storage.Storage
		closeFn = func() {}
	)
	switch {
	case o.redisAddr != "":
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{o.redisAddr}})
		backend = storage.NewRedis(client, o.redisPrefix)
		closeFn = func() { _ = client.Close() }
	case o.stateDB != "":
		db, err := storage.OpenSQLite(ctx, o.stateDB, o.redisPrefix)
		if err != nil {
			return nil, nil, err
		}
		backend = db
		closeFn = func() { _ = db.Close() }
	default:
		backend = storage.NewFile(o.stateFile)
	}

	store, err := goConsole.New().
		WithBaseURL(o.server).
		WithStorage(backend).
		WithLogger(o.logger).
		Build()
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	cleanup := func() {
		store.Close()
		closeFn()
	}
	if err := store.InitializeAuth(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}
	return store, cleanup, nil
}

func (o *options) loadTable() (*router.Table, error) {
	if o.routes == "" {
		return router.DefaultTable(), nil
	}
	f, err := os.Open(o.routes)
	if err != nil {
		return nil, fmt.Errorf("open route table: %w", err)
	}
	defer f.Close()
	return router.LoadTable(f)
}
