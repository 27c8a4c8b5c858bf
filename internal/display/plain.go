package display

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"chessmatch/internal/board"
	"chessmatch/internal/match"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg string
	darkBg  string
	moveBg  string
	checkBg string
	white   string
	black   string
	reset   string
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		lightBg: "\033[48;5;230m", // Beige
		darkBg:  "\033[48;5;94m",  // Brown
		moveBg:  "\033[48;5;179m", // Amber
		checkBg: "\033[48;5;167m", // Red
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGreen: {
		lightBg: "\033[48;5;157m", // Light green
		darkBg:  "\033[48;5;22m",  // Dark green
		moveBg:  "\033[48;5;186m", // Pale yellow
		checkBg: "\033[48;5;167m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGray: {
		lightBg: "\033[48;5;251m", // Light gray
		darkBg:  "\033[48;5;240m", // Dark gray
		moveBg:  "\033[48;5;110m", // Steel blue
		checkBg: "\033[48;5;167m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
}

const clearScreen = "\033[H\033[2J"

// PlainConfig sets up a Plain view
type PlainConfig struct {
	In  io.Reader
	Out io.Writer
	// Interactive enables readline line editing, screen clearing and the
	// live thinking line; off for pipes and files
	Interactive bool
	Theme       ColorTheme
}

// Plain redraws the board as text after every move. Typing "quit" (or
// Ctrl-C, Ctrl-D) stops the match; Enter acknowledges the final position.
type Plain struct {
	signals
	out         io.Writer
	rl          *readline.Instance
	scanner     *bufio.Scanner
	interactive bool
	theme       ColorTheme
	inputDone   chan struct{}
	over        atomic.Bool  // last snapshot was final
	lines       atomic.Int64 // input lines handled

	mu        sync.Mutex
	lastMoves int
	lastState string
	drawn     bool

	header  *color.Color
	warn    *color.Color
	alert   *color.Color
	success *color.Color
	dim     *color.Color
}

func NewPlain(cfg PlainConfig) (*Plain, error) {
	if _, ok := themes[cfg.Theme]; !ok {
		return nil, fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", cfg.Theme)
	}

	p := &Plain{
		signals:     newSignals(),
		out:         cfg.Out,
		interactive: cfg.Interactive,
		theme:       cfg.Theme,
		inputDone:   make(chan struct{}),
		lastMoves:   -1,
		header:      color.New(color.FgCyan, color.Bold),
		warn:        color.New(color.FgYellow),
		alert:       color.New(color.FgRed, color.Bold),
		success:     color.New(color.FgGreen, color.Bold),
		dim:         color.New(color.Faint),
	}

	if cfg.Interactive {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "",
			Stdin:           io.NopCloser(cfg.In),
			Stdout:          cfg.Out,
			InterruptPrompt: "^C",
			EOFPrompt:       "quit",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init readline: %w", err)
		}
		p.rl = rl
		p.out = rl.Stdout()
	} else {
		p.theme = ThemeOff
		p.scanner = bufio.NewScanner(cfg.In)
		for _, c := range []*color.Color{p.header, p.warn, p.alert, p.success, p.dim} {
			c.DisableColor()
		}
	}

	go p.readLoop()
	return p, nil
}

// readLoop turns input lines into signals until input ends
func (p *Plain) readLoop() {
	defer close(p.inputDone)

	for {
		line, err := p.readLine()
		if err != nil {
			// Ctrl-C, or Ctrl-D at a terminal, means quit. A pipe running
			// dry just stops input.
			if errors.Is(err, readline.ErrInterrupt) || (p.interactive && errors.Is(err, io.EOF)) {
				p.requestQuit()
			}
			return
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q", "quit", "exit":
			p.requestQuit()
			p.lines.Add(1)
			return
		default:
			// Lines typed during play are dropped
			if p.over.Load() {
				p.acknowledge()
			}
		}
		p.lines.Add(1)
	}
}

func (p *Plain) readLine() (string, error) {
	if p.rl != nil {
		return p.rl.Readline()
	}
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Update redraws the board when the position or status changes and
// refreshes the thinking line on heartbeats
func (p *Plain) Update(s match.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.over.Store(!s.Running)

	state := s.Status
	if s.MoveCount != p.lastMoves || state != p.lastState || !p.drawn {
		p.lastMoves, p.lastState, p.drawn = s.MoveCount, state, true
		fmt.Fprint(p.out, p.render(s))
		return
	}

	if p.interactive && s.Thinking > 0 {
		fmt.Fprintf(p.out, "\r\033[K%s", p.dim.Sprintf("thinking %.1fs", s.Thinking.Seconds()))
	}
}

// WaitAck prompts for Enter once the game is over
func (p *Plain) WaitAck(ctx context.Context) error {
	select {
	case <-p.inputDone:
		return nil
	default:
	}

	fmt.Fprintln(p.out, p.dim.Sprint("Press Enter to exit."))
	select {
	case <-p.inputDone:
		return nil
	case <-p.ack:
		return nil
	case <-p.quit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the terminal
func (p *Plain) Close() error {
	if p.rl != nil {
		return p.rl.Close()
	}
	return nil
}

func (p *Plain) render(s match.Snapshot) string {
	var sb strings.Builder
	if p.interactive {
		sb.WriteString(clearScreen)
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString(p.header.Sprint(title(s)))
	sb.WriteString("\n")
	sb.WriteString(playersLine(s))
	sb.WriteString("\n")

	if b, err := board.ParseFEN(s.FEN); err == nil {
		sb.WriteString(p.drawBoard(b, highlightsOf(s)))
	} else {
		sb.WriteString(p.alert.Sprintf("cannot draw position: %v", err))
		sb.WriteString("\n")
	}

	rows := moveRows(s.Moves)
	if len(rows) > 6 {
		rows = rows[len(rows)-6:]
	}
	if len(rows) > 0 {
		sb.WriteString(p.dim.Sprint(strings.Join(rows, "  ")))
		sb.WriteString("\n")
	}

	sb.WriteString(p.statusLine(s))
	sb.WriteString("\n")
	return sb.String()
}

func (p *Plain) statusLine(s match.Snapshot) string {
	line := s.Status
	if s.Substitutions > 0 {
		line += fmt.Sprintf(" [%d random]", s.Substitutions)
	}

	switch {
	case !s.Running && s.Verdict.IsDraw():
		return p.warn.Sprint(line)
	case !s.Running:
		return p.success.Sprint(line)
	case strings.HasPrefix(s.Status, "error"):
		return p.alert.Sprint(line)
	case s.Check:
		return p.alert.Sprint(line + " (check)")
	case strings.Contains(s.Status, "random"):
		return p.warn.Sprint(line)
	default:
		return line
	}
}

// drawBoard renders the board with the theme, highlighting the last move
// and a checked king
func (p *Plain) drawBoard(b *board.Board, hl highlights) string {
	theme := themes[p.theme]
	var sb strings.Builder

	sb.WriteString("\n  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < 8; f++ {
			square := fmt.Sprintf("%c%c", 'a'+f, '8'-r)
			piece := b.GetPieceAt(square)

			if p.theme == ThemeOff {
				switch {
				case piece != 0:
					sb.WriteString(fmt.Sprintf("%c", piece))
				default:
					sb.WriteString(".")
				}
				if square == hl.to {
					sb.WriteString("*")
				} else {
					sb.WriteString(" ")
				}
				continue
			}

			bg := theme.darkBg
			if (r+f)%2 == 0 {
				bg = theme.lightBg
			}
			switch square {
			case hl.check:
				bg = theme.checkBg
			case hl.from, hl.to:
				bg = theme.moveBg
			}

			if piece == 0 {
				sb.WriteString(fmt.Sprintf("%s  %s", bg, theme.reset))
			} else {
				fg := theme.black
				if piece >= 'A' && piece <= 'Z' {
					fg = theme.white
				}
				sb.WriteString(fmt.Sprintf("%s%s%s %s", bg, fg, glyphs[piece], theme.reset))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h\n")

	return sb.String()
}
