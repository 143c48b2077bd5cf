// Command peach-lcd serves an HD44780 character display over JSON-RPC.
//
// It claims the six GPIO lines of the display at startup, initializes it and
// answers write, clear and reset calls on the configured address.
//
// Usage:
//
//	peach-lcd [flags]
//
// Flags:
//
//	-config string     YAML configuration file (optional)
//	-listen string     Listen address, overrides the file (default "127.0.0.1:3030")
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-version           Show version information
//
// Examples:
//
//	# Serve with the built-in pin map
//	peach-lcd
//
//	# Use another wiring and listen on every interface
//	peach-lcd -config /etc/peach/lcd.yml -listen 0.0.0.0:3030
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peachcloud/hd44780"
	"github.com/peachcloud/hd44780/internal/config"
	"github.com/peachcloud/hd44780/lcdrpc"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file")
	listen      = flag.String("listen", "", "Listen address (default from config, 127.0.0.1:3030)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("peach-lcd %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Error("failed to load configuration", "error", err)
			return 1
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	dev, err := openDisplay(cfg)
	if err != nil {
		logger.Error("failed to initialize display", "error", err)
		return 1
	}
	logger.Info("display initialized", "dev", dev.String(), "pins", cfg.Pins.Names())

	session := lcdrpc.NewSession(dev)
	defer func() {
		if err := haltDisplay(session, dev); err != nil {
			logger.Warn("failed to turn display off", "error", err)
		}
	}()

	svc := lcdrpc.NewService(session)
	srv, err := lcdrpc.NewServer(lcdrpc.ServerConfig{
		Addr:           cfg.Listen,
		AllowedOrigins: cfg.AllowedOrigins,
		Version:        Version,
	}, svc, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return 1
		}
	}
	return 0
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// haltDisplay turns the display off once the call holding the session, if
// any, is done. Calls still running after a timed out shutdown finish first.
func haltDisplay(session *lcdrpc.Session, dev *hd44780.Dev) error {
	return session.Do(func(lcdrpc.Display) error { return dev.Halt() })
}

// openDisplay looks up and claims the pins, then initializes the display.
// Any failure here leaves the process without a usable display.
func openDisplay(cfg *config.Config) (*hd44780.Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	var pins [6]gpio.PinOut
	for i, name := range cfg.Pins.Names() {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("GPIO pin %s not found", name)
		}
		pins[i] = p
	}

	bus, err := hd44780.NewFourBitBus(pins[0], pins[1], pins[2], pins[3], pins[4], pins[5])
	if err != nil {
		return nil, err
	}
	opts, err := cfg.DriverOpts()
	if err != nil {
		return nil, err
	}
	dev, err := hd44780.New(bus, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create display on %s: %w", bus, err)
	}
	return dev, nil
}
