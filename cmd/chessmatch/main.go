// Package main runs one game between two external chess engines and shows
// it in the terminal, with optional persistence and a spectator API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"chessmatch/cmd/chessmatch/cli"
	"chessmatch/internal/config"
	"chessmatch/internal/core"
	"chessmatch/internal/display"
	"chessmatch/internal/engine"
	"chessmatch/internal/feed"
	chttp "chessmatch/internal/http"
	"chessmatch/internal/match"
	"chessmatch/internal/storage"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	storageFlushTimeout     = 3 * time.Second
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:], os.Stdout); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chessmatch: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		if errors.Is(err, core.ErrEngineNotFound) {
			fmt.Fprintf(os.Stderr, "chessmatch: %v\n", err)
			fmt.Fprintln(os.Stderr, "install the engine or pass its binary with -white-path / -black-path")
			os.Exit(1)
		}
		log.Fatalf("chessmatch: %v", err)
	}
}

func run(cfg *config.Config) error {
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	white, black, err := cfg.Players()
	if err != nil {
		return err
	}
	whiteAdapter, err := engine.New(&white, cfg.UCIFlag)
	if err != nil {
		return err
	}
	blackAdapter, err := engine.New(&black, cfg.UCIFlag)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	label := cfg.Label
	if label == "" {
		label = petname.Generate(2, "-")
	}

	// Storage is optional
	var store *storage.Store
	if cfg.StoragePath != "" {
		log.Printf("Initializing persistent storage at: %s", cfg.StoragePath)
		store, err = storage.NewStore(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		defer func() {
			if err := store.Flush(storageFlushTimeout); err != nil {
				log.Printf("Warning: %v", err)
			}
			if err := store.Close(); err != nil {
				log.Printf("Warning: failed to close storage cleanly: %v", err)
			}
		}()
	}

	view, tui, err := newView(cfg)
	if err != nil {
		return err
	}
	if c, ok := view.(io.Closer); ok {
		defer c.Close()
	}

	spectators := feed.New(0)

	m, err := newMatch(cfg, id, label,
		match.Side{Player: white, Adapter: whiteAdapter},
		match.Side{Player: black, Adapter: blackAdapter},
		match.Observers{view, spectators}, store)
	if err != nil {
		return err
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(sigCtx)
	matchCtx, stopMatch := context.WithCancel(gctx)
	defer stopMatch()

	var running atomic.Bool
	running.Store(true)
	stop := func(reason string) bool {
		if !running.Load() || matchCtx.Err() != nil {
			return false
		}
		log.Printf("Stopping match: %s", reason)
		stopMatch()
		return true
	}

	finished := make(chan struct{})
	var result match.Result

	var app *fiber.App
	if cfg.HTTPAddr != "" {
		app = chttp.NewFiberApp(spectators, stop)
		g.Go(func() error {
			log.Printf("Spectator API listening on: http://%s/api/v1/match", cfg.HTTPAddr)
			if err := app.Listen(cfg.HTTPAddr); err != nil {
				return fmt.Errorf("spectator API: %w", err)
			}
			return nil
		})
	}

	if tui != nil {
		g.Go(func() error {
			if err := tui.Run(); err != nil {
				return fmt.Errorf("terminal UI: %w", err)
			}
			return nil
		})
	}

	// User quit from the view
	g.Go(func() error {
		select {
		case <-view.Quit():
			stop("quit by user")
		case <-finished:
		}
		return nil
	})

	g.Go(func() error {
		defer close(finished)

		res, err := m.Run(matchCtx)
		running.Store(false)
		result = res

		if ackErr := view.WaitAck(gctx); ackErr != nil && !errors.Is(ackErr, context.Canceled) {
			log.Printf("Waiting for acknowledgement: %v", ackErr)
		}

		spectators.Shutdown()
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Printf("Server forced to shutdown: %v", err)
			}
		}
		if tui != nil {
			tui.Stop()
		}
		return err
	})

	err = g.Wait()
	printResult(os.Stdout, result)
	return err
}

// newMatch builds the match and, with storage enabled, records its row.
// Nothing is written when the match cannot be set up.
func newMatch(cfg *config.Config, id, label string, white, black match.Side, observer match.Observer, store *storage.Store) (*match.Match, error) {
	opts := match.Options{
		ID:            id,
		Label:         label,
		FEN:           cfg.FEN,
		MoveTime:      cfg.MoveTime(),
		MovePause:     cfg.MovePause,
		RecoveryPause: cfg.RecoveryPause,
		Observer:      observer,
	}
	if cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	}

	var j *journal
	if store != nil {
		j = &journal{store: store}
		opts.Recorder = j
	}

	m, err := match.New(white, black, opts)
	if err != nil {
		return nil, err
	}

	if j != nil {
		j.begin(id, label, m.Tracker().InitialFEN(), white.Player, black.Player, cfg.MoveTime())
	}
	return m, nil
}

// newView picks the display for the configured UI mode. The TUI is also
// returned on its own since its event loop has to be run.
func newView(cfg *config.Config) (match.View, *display.TUI, error) {
	switch cfg.UI {
	case "tui":
		t := display.NewTUI()
		return t, t, nil
	case "none":
		return display.NewHeadless(), nil, nil
	default:
		interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		p, err := display.NewPlain(display.PlainConfig{
			In:          os.Stdin,
			Out:         os.Stdout,
			Interactive: interactive,
			Theme:       display.ColorTheme(cfg.Theme),
		})
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}
}

func printResult(w io.Writer, r match.Result) {
	if r.ID == "" {
		return
	}
	fmt.Fprintf(w, "\n%s: %s vs %s\n", r.Label, r.White.String(), r.Black.String())
	fmt.Fprintf(w, "Result: %s (%s)\n", r.Score(), r.Verdict)
	if r.Winner != "" {
		fmt.Fprintf(w, "Winner: %s\n", r.Winner)
	}
	fmt.Fprintf(w, "Half-moves: %d, random substitutes: %d, duration: %s\n",
		len(r.Moves), r.Substitutions, r.Finished.Sub(r.Started).Round(time.Second))
	if len(r.Moves) > 0 {
		fmt.Fprintf(w, "Moves: %s\n", strings.Join(r.Moves, " "))
	}
	fmt.Fprintf(w, "Final FEN: %s\n", r.FinalFEN)
}
