// Package config turns command-line flags into a validated match setup
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"chessmatch/internal/core"
	"chessmatch/internal/engine"
	"chessmatch/internal/game"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultWhite    = "stockfish"
	DefaultBlack    = "crafty"
	DefaultMoveTime = 1000 // ms
)

// EngineConfig names one engine and how to reach it
type EngineConfig struct {
	Name     string `validate:"required,max=64,excludesall=/"`
	Path     string `validate:"omitempty,max=4096"`
	Protocol string `validate:"required,oneof=uci cecp xboard"`
}

// Config is the whole run configuration
type Config struct {
	White EngineConfig
	Black EngineConfig

	UCIFlag       string        `validate:"omitempty,startswith=-,max=32"`
	MoveTimeMs    int           `validate:"min=100,max=60000"`
	MovePause     time.Duration `validate:"min=0,max=1m"`
	RecoveryPause time.Duration `validate:"min=0,max=1m"`
	FEN           string        `validate:"omitempty,fen"`

	UI          string `validate:"oneof=plain tui none"`
	Theme       string `validate:"oneof=off brown green gray"`
	HTTPAddr    string `validate:"omitempty,hostname_port"`
	StoragePath string `validate:"omitempty,max=4096"`
	LogPath     string `validate:"omitempty,max=4096"`
	Label       string `validate:"omitempty,max=64"`
	Seed        uint64
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("fen", func(fl validator.FieldLevel) bool {
		return game.ValidateFEN(fl.Field().String()) == nil
	})
	return v
}

// Parse reads flags from args (without the program name). Output for
// -h and parse errors goes to out.
func Parse(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("chessmatch", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&cfg.White.Name, "white", DefaultWhite, "White engine name")
	fs.StringVar(&cfg.White.Path, "white-path", "", "White engine binary (searched by name if empty)")
	fs.StringVar(&cfg.White.Protocol, "white-protocol", "uci", "White engine protocol: uci, cecp")
	fs.StringVar(&cfg.Black.Name, "black", DefaultBlack, "Black engine name")
	fs.StringVar(&cfg.Black.Path, "black-path", "", "Black engine binary (searched by name if empty)")
	fs.StringVar(&cfg.Black.Protocol, "black-protocol", "cecp", "Black engine protocol: uci, cecp")
	fs.StringVar(&cfg.UCIFlag, "uci-flag", engine.DefaultUCIFlag, "Flag asking a CECP engine for UCI mode (empty disables the retry)")
	fs.IntVar(&cfg.MoveTimeMs, "movetime", DefaultMoveTime, "Search time per move in milliseconds")
	fs.DurationVar(&cfg.MovePause, "pause", 500*time.Millisecond, "Pause after each move")
	fs.DurationVar(&cfg.RecoveryPause, "recovery-pause", 2*time.Second, "Pause before recovering from a failed turn")
	fs.StringVar(&cfg.FEN, "fen", "", "Starting position (standard start if empty)")
	fs.StringVar(&cfg.UI, "ui", "plain", "View: plain, tui, none")
	fs.StringVar(&cfg.Theme, "theme", "brown", "Board colors for the plain view: off, brown, green, gray")
	fs.StringVar(&cfg.HTTPAddr, "http", "", "Spectator API address, e.g. localhost:8080 (disabled if empty)")
	fs.StringVar(&cfg.StoragePath, "storage-path", "", "Path to SQLite database file (disables persistence if empty)")
	fs.StringVar(&cfg.LogPath, "log", "", "Log file (stderr if empty; defaults to chessmatch.log with -ui tui)")
	fs.StringVar(&cfg.Label, "label", "", "Human-readable match label (generated if empty)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "Seed for fallback moves (random if 0)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if cfg.UI == "tui" && cfg.LogPath == "" {
		cfg.LogPath = "chessmatch.log"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid configuration: %s", describe(verrs))
		}
		return err
	}
	return nil
}

func (c *Config) MoveTime() time.Duration {
	return time.Duration(c.MoveTimeMs) * time.Millisecond
}

func describe(errs validator.ValidationErrors) string {
	var details strings.Builder
	for _, err := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		field := err.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", field))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", field, err.Param()))
		case "min", "max":
			bound := "at least"
			if err.Tag() == "max" {
				bound = "at most"
			}
			if err.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be %s %s characters", field, bound, err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be %s %s", field, bound, err.Param()))
			}
		case "fen":
			details.WriteString(fmt.Sprintf("%s is not a valid FEN", field))
		case "hostname_port":
			details.WriteString(fmt.Sprintf("%s must be host:port", field))
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", field, err.Tag()))
		}
	}
	return details.String()
}

// Players resolves both engines to players with absolute binary paths
func (c *Config) Players() (white, black core.Player, err error) {
	white, err = c.White.player(core.ColorWhite)
	if err != nil {
		return white, black, err
	}
	black, err = c.Black.player(core.ColorBlack)
	return white, black, err
}

func (e EngineConfig) player(color core.Color) (core.Player, error) {
	proto, err := core.ParseProtocol(e.Protocol)
	if err != nil {
		return core.Player{}, err
	}
	path, err := Discover(e.Name, e.Path)
	if err != nil {
		return core.Player{}, err
	}
	return core.Player{Name: e.Name, Color: color, Protocol: proto, Path: path}, nil
}
