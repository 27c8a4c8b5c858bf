package core

import "fmt"

type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorBlack:
		return "black"
	default:
		return "-"
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white", "w":
		*c = ColorWhite
	case "black", "b":
		*c = ColorBlack
	default:
		return fmt.Errorf("unknown color %q", text)
	}
	return nil
}

// Index maps white to 0 and black to 1 for side-indexed arrays
func (c Color) Index() int {
	if c == ColorBlack {
		return 1
	}
	return 0
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// VerdictKind enumerates how a game stands
type VerdictKind int

const (
	VerdictOngoing VerdictKind = iota
	VerdictCheckmate
	VerdictStalemate
	VerdictInsufficientMaterial
	VerdictFiftyMove
	VerdictRepetition
	VerdictAborted
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictOngoing:
		return "ongoing"
	case VerdictCheckmate:
		return "checkmate"
	case VerdictStalemate:
		return "stalemate"
	case VerdictInsufficientMaterial:
		return "draw by insufficient material"
	case VerdictFiftyMove:
		return "draw by fifty-move rule"
	case VerdictRepetition:
		return "draw by threefold repetition"
	case VerdictAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Verdict is the tagged game outcome. Winner is only meaningful for checkmate.
type Verdict struct {
	Kind   VerdictKind
	Winner Color
}

func Ongoing() Verdict { return Verdict{Kind: VerdictOngoing} }

func (v Verdict) Terminal() bool {
	return v.Kind != VerdictOngoing
}

func (v Verdict) IsDraw() bool {
	switch v.Kind {
	case VerdictStalemate, VerdictInsufficientMaterial, VerdictFiftyMove, VerdictRepetition:
		return true
	}
	return false
}

// Score renders the result in PGN result notation
func (v Verdict) Score() string {
	switch {
	case v.Kind == VerdictCheckmate && v.Winner == ColorWhite:
		return "1-0"
	case v.Kind == VerdictCheckmate && v.Winner == ColorBlack:
		return "0-1"
	case v.IsDraw():
		return "1/2-1/2"
	default:
		return "*"
	}
}

func (v Verdict) String() string {
	if v.Kind == VerdictCheckmate {
		return fmt.Sprintf("checkmate, %s wins", v.Winner)
	}
	return v.Kind.String()
}

// MoveSource records who actually chose an applied move
type MoveSource int

const (
	SourceEngine MoveSource = iota + 1
	SourceFallback
)

func (s MoveSource) String() string {
	switch s {
	case SourceEngine:
		return "engine"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}
