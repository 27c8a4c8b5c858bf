package display

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chessmatch/internal/board"
	"chessmatch/internal/match"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	numRanks = 8
	numFiles = 8
)

var (
	lightSquare = tcell.ColorNavajoWhite
	darkSquare  = tcell.ColorSaddleBrown
	moveSquare  = tcell.ColorGoldenrod
	checkSquare = tcell.ColorIndianRed
)

// TUI is the full-screen view. Update only stores the latest snapshot;
// drawing happens on the tview event loop.
type TUI struct {
	signals
	app    *tview.Application
	board  *tview.Table
	header *tview.TextView
	status *tview.TextView
	moves  *tview.TextView

	mu     sync.Mutex
	latest match.Snapshot
	have   bool
	dirty  chan struct{}
	done   chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewTUI() *TUI {
	t := &TUI{
		signals: newSignals(),
		app:     tview.NewApplication(),
		board:   tview.NewTable(),
		header:  tview.NewTextView().SetDynamicColors(true),
		status:  tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		moves:   tview.NewTextView().SetScrollable(true),
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	t.moves.SetBorder(true).SetTitle(" moves ")
	t.board.SetBorder(true)

	layout := tview.NewGrid().
		SetRows(2, 12, -1).
		SetColumns(22, 30, -1).
		AddItem(t.header, 0, 0, 1, 3, 0, 0, false).
		AddItem(t.board, 1, 0, 1, 1, 0, 0, false).
		AddItem(t.moves, 1, 1, 2, 1, 0, 0, false).
		AddItem(t.status, 2, 0, 1, 1, 0, 0, false)

	t.app.SetRoot(layout, true).SetInputCapture(t.handleKey)
	return t
}

// Update never blocks; a pending redraw absorbs later snapshots
func (t *TUI) Update(s match.Snapshot) {
	t.mu.Lock()
	t.latest, t.have = s, true
	t.mu.Unlock()

	select {
	case t.dirty <- struct{}{}:
	default:
	}
}

// Run drives the terminal until Stop is called. It returns at once if Stop
// came first.
func (t *TUI) Run() error {
	select {
	case <-t.stopped:
		return nil
	default:
	}

	defer close(t.done)
	go t.drawLoop()
	go t.stopLoop()
	return t.app.Run()
}

// Stop may be called before Run, while the screen is still being set up, or
// more than once
func (t *TUI) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
	t.app.Stop()
}

// stopLoop replays a stop request on the event loop, where it lands only once
// the screen exists
func (t *TUI) stopLoop() {
	select {
	case <-t.done:
	case <-t.stopped:
		t.app.QueueUpdate(t.app.Stop)
	}
}

// WaitAck waits for a key press after the match ends
func (t *TUI) WaitAck(ctx context.Context) error {
	return t.waitAck(ctx)
}

func (t *TUI) drawLoop() {
	for {
		select {
		case <-t.done:
			return
		case <-t.dirty:
			t.mu.Lock()
			s := t.latest
			t.mu.Unlock()
			t.app.QueueUpdateDraw(func() { t.render(s) })
		}
	}
}

func (t *TUI) finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.have && !t.latest.Running
}

// handleKey maps q, Esc and Ctrl-C to quit. Once the game is over any key
// acknowledges the final position.
func (t *TUI) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	quit := ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
		(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'))

	switch {
	case quit:
		t.requestQuit()
		return nil
	case t.finished():
		t.acknowledge()
		return nil
	}
	return ev
}

func (t *TUI) render(s match.Snapshot) {
	t.header.SetText(fmt.Sprintf("[::b]%s[::-]\n%s", tview.Escape(title(s)), tview.Escape(playersLine(s))))
	t.renderBoard(s)
	t.moves.SetText(strings.Join(moveRows(s.Moves), "\n"))
	t.moves.ScrollToEnd()
	t.status.SetText(statusMarkup(s))
}

func (t *TUI) renderBoard(s match.Snapshot) {
	b, err := board.ParseFEN(s.FEN)
	if err != nil {
		t.board.Clear()
		t.board.SetCell(0, 0, tview.NewTableCell(err.Error()).SetTextColor(tcell.ColorRed))
		return
	}
	hl := highlightsOf(s)

	for r := 0; r <= numRanks; r++ {
		for f := 0; f <= numFiles; f++ {
			switch {
			case r == numRanks && f == 0:
				t.board.SetCell(r, f, tview.NewTableCell(" ").SetSelectable(false))
			case f == 0:
				t.board.SetCell(r, f, tview.NewTableCell(fmt.Sprintf("%d", numRanks-r)).
					SetAlign(tview.AlignCenter).SetSelectable(false))
			case r == numRanks:
				t.board.SetCell(r, f, tview.NewTableCell(fmt.Sprintf("%c ", 'a'+f-1)).
					SetAlign(tview.AlignCenter).SetSelectable(false))
			default:
				square := fmt.Sprintf("%c%d", 'a'+f-1, numRanks-r)
				piece := b.GetPieceAt(square)
				text := "  "
				fg := tcell.ColorBlack
				if piece != 0 {
					text = glyphs[piece] + " "
					if piece >= 'A' && piece <= 'Z' {
						fg = tcell.ColorWhite
					}
				}
				t.board.SetCell(r, f, tview.NewTableCell(text).
					SetAlign(tview.AlignCenter).
					SetTextColor(fg).
					SetBackgroundColor(squareColor(square, hl)))
			}
		}
	}
}

// squareColor picks the background of a board square
func squareColor(square string, hl highlights) tcell.Color {
	switch square {
	case hl.check:
		return checkSquare
	case hl.from, hl.to:
		return moveSquare
	}
	row, col, ok := squareIndex(square)
	if !ok {
		return tcell.ColorDefault
	}
	if (row+col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

func statusMarkup(s match.Snapshot) string {
	var sb strings.Builder
	line := tview.Escape(s.Status)

	switch {
	case !s.Running:
		sb.WriteString("[green::b]" + line + "[-::-]\n")
		sb.WriteString("[gray]press any key to exit[-]")
	case strings.HasPrefix(s.Status, "error"):
		sb.WriteString("[red]" + line + "[-]")
	case s.Check:
		sb.WriteString("[red]" + line + " (check)[-]")
	default:
		sb.WriteString(line)
	}

	if s.Running && s.Thinking > 0 {
		sb.WriteString(fmt.Sprintf("\n[gray]thinking %.1fs[-]", s.Thinking.Seconds()))
	}
	if s.Substitutions > 0 {
		sb.WriteString(fmt.Sprintf("\n[yellow]%d random moves[-]", s.Substitutions))
	}
	return sb.String()
}
