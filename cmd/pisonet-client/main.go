// Command pisonet-client is the kiosk terminal UI. It follows the host's
// event stream, keeps the session state and switches between the main,
// compact and settings screens.
package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/earljohn004/centralized-pisonet-app/internal/app"
	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/config"
	"github.com/earljohn004/centralized-pisonet-app/internal/eventbus"
	"github.com/earljohn004/centralized-pisonet-app/internal/gateway"
	"github.com/earljohn004/centralized-pisonet-app/internal/lockdown"
	"github.com/earljohn004/centralized-pisonet-app/internal/nav"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/earljohn004/centralized-pisonet-app/internal/subscription"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		wsURL      string
		token      string
		production bool
	)

	flagSet := pflag.NewFlagSet("pisonet-client", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a config file (yaml, toml or json)")
	flagSet.StringVar(&wsURL, "url", "", "WebSocket URL of the kiosk host (overrides config)")
	flagSet.StringVar(&token, "token", "", "auth token, if the host requires one (overrides config)")
	flagSet.BoolVar(&production, "production", false, "production kiosk mode (overrides config)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if wsURL != "" {
		cfg.Host.WSURL = wsURL
		cfg.Host.HTTPURL = config.DeriveHTTPBase(wsURL)
	}
	if token != "" {
		cfg.Host.Token = token
	}
	if flagSet.Changed("production") {
		cfg.Kiosk.Production = production
	}

	log, closeLog, err := openLog(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info().
		Str("ws_url", cfg.Host.WSURL).
		Str("http_url", cfg.Host.HTTPURL).
		Bool("production", cfg.Kiosk.Production).
		Msg("starting kiosk client")

	bus := eventbus.New()
	defer bus.Close()
	store := session.NewStore()
	router := nav.NewRouter()

	gw := gateway.New(client.NewHTTPClient(cfg.Host.HTTPURL, cfg.Host.Token), store, gateway.Policy{
		Timeout: cfg.Gateway.Timeout,
		Retries: cfg.Gateway.Retries,
		Backoff: cfg.Gateway.Backoff,
	}, log)
	policy := gw.Policy()
	log.Info().
		Dur("timeout", policy.Timeout).
		Int("retries", policy.Retries).
		Dur("backoff", policy.Backoff).
		Msg("host command policy")

	m := app.New(app.Deps{
		Bus:           bus,
		Store:         store,
		Router:        router,
		Subscriptions: subscription.New(bus, store, router, log),
		Commands:      gw,
		Transport:     client.NewWSClient(cfg.Host.WSURL, cfg.Host.Token, log),
		Production:    cfg.Kiosk.Production,
		Log:           log,
	})

	guard := lockdown.New(cfg.Kiosk.Production, log)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithFilter(guard.Filter),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// openLog writes JSON logs to the configured file; the terminal belongs to
// the UI.
func openLog(c config.LogConfig) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
	}
	if c.File == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log: %w", err)
	}
	log := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return log, func() { f.Close() }, nil
}
