package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"pokerroomd/internal/config"
	"pokerroomd/internal/game"
	"pokerroomd/internal/server"
	"pokerroomd/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"pokerroomd.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	addr := cfg.ListenAddress()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	logger.Info("Starting poker room daemon", "addr", addr, "rooms", len(cfg.Rooms))

	// Manager-level defaults come from the first configured room; per-room
	// capacities are applied as each room is created below.
	opts := []game.Option{}
	if len(cfg.Rooms) > 0 {
		opts = append(opts,
			game.WithStartingChips(cfg.Rooms[0].StartingChips),
			game.WithTurnTimeout(cfg.Rooms[0].TurnTimeout()),
			game.WithDefaultCapacity(cfg.Rooms[0].SeatCapacity),
		)
	}
	manager := game.New(logger, store.NewMemory(), opts...)

	for _, room := range cfg.Rooms {
		manager.EnsureRoom(room.Name, room.SeatCapacity)
		logger.Info("Created room", "name", room.Name, "seats", room.SeatCapacity, "chips", room.StartingChips)
	}

	wsServer := server.NewServer(addr, logger, manager)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		_ = wsServer.Stop()
		// http.ListenAndServe has no shutdown hook; give in-flight writes a
		// moment then let the process exit.
		time.Sleep(200 * time.Millisecond)
		os.Exit(0)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
}
