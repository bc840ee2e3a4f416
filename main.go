package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ghaggin/smartsplit/internal/api"
	"github.com/ghaggin/smartsplit/internal/bridge"
	"github.com/ghaggin/smartsplit/internal/config"
	"github.com/ghaggin/smartsplit/internal/membership"
	"github.com/ghaggin/smartsplit/internal/middleware"
	"github.com/ghaggin/smartsplit/internal/repository"
	"github.com/ghaggin/smartsplit/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var (
		mode       = flag.String("mode", "bridge", "either bridge or whoami")
		configPath = flag.String("config", "smartsplit.yaml", "path to the yaml config file")
	)
	flag.Parse()

	newConfigPath := func() config.Path {
		return config.Path(*configPath)
	}

	deps := fx.Options(
		fx.Provide(
			newConfigPath,
			config.New,
			newLogger,
			repository.NewJSON,
			api.New,
			authService,
			directory,
			groups,
			session.New,
		),
	)

	switch *mode {
	case "bridge":
		fx.New(
			deps,
			fx.Provide(
				ledger,
				membership.New,
				batch,
				sessions,
				middleware.NewViewState,
				bridge.New,
			),
			fx.Invoke(session.RegisterHooks),
			fx.Invoke(bridge.RegisterHooks),
		).Run()
	case "whoami":
		if err := whoami(deps); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		panic("unrecognized mode")
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func authService(c *api.Client) session.AuthService { return c }
func directory(c *api.Client) membership.Directory  { return c }
func groups(c *api.Client) membership.Groups        { return c }
func ledger(c *api.Client) bridge.Ledger            { return c }
func batch(m *membership.Mutator) bridge.Batch      { return m }
func sessions(m *session.Manager) bridge.Sessions   { return m }

// whoami restores the saved session, waits for the server to confirm it and
// prints who is logged in.
func whoami(deps fx.Option) error {
	var m *session.Manager
	app := fx.New(deps, fx.Populate(&m), fx.NopLogger)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = app.Stop(context.Background()) }()

	select {
	case <-m.Bootstrap(ctx):
	case <-ctx.Done():
		return ctx.Err()
	}

	s := m.Snapshot()
	if !s.LoggedIn() {
		fmt.Printf("not logged in (%s)\n", s.State)
		return nil
	}
	fmt.Printf("%s <%s> (%s)\n", s.Identity.Username, s.Identity.Email, s.State)
	return nil
}
