// Command pisonet-host is a development stand-in for the kiosk host. It
// serves the event stream and HTTP commands the kiosk client expects and
// simulates coin credits counting down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/config"
	"github.com/earljohn004/centralized-pisonet-app/internal/host"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		stationPath string
		port        int
		logLevel    string
	)

	flagSet := pflag.NewFlagSet("pisonet-host", pflag.ContinueOnError)
	flagSet.StringVar(&stationPath, "station", "station.yaml", "path to the station file (created with defaults if missing)")
	flagSet.IntVar(&port, "port", 0, "override server port")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	station, created, err := config.LoadOrInitStation(stationPath)
	if err != nil {
		return fmt.Errorf("load station: %w", err)
	}
	if created {
		log.Info().Str("path", stationPath).Msg("wrote default station file")
	}
	if port > 0 {
		station.Server.Port = port
	}

	broadcaster := host.NewBroadcaster(log)
	countdown := host.NewCountdown(broadcaster, station.Countdown.SecondsPerCredit, station.Countdown.TickInterval, log)
	server := host.NewServer(station, stationPath, broadcaster, countdown, log)
	watcher := host.NewStationWatcher(stationPath, server.SetStation, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort(station.Server.Host, strconv.Itoa(station.Server.Port)),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return host.ListenAndServe(srv, log) })
	g.Go(func() error { return countdown.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
