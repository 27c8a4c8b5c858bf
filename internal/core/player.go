package core

import "fmt"

// Protocol selects the control vocabulary spoken to an engine process
type Protocol int

const (
	ProtocolUCI Protocol = iota + 1
	ProtocolCECP
)

func (p Protocol) String() string {
	switch p {
	case ProtocolUCI:
		return "uci"
	case ProtocolCECP:
		return "cecp"
	default:
		return "unknown"
	}
}

func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "uci":
		return ProtocolUCI, nil
	case "cecp", "xboard":
		return ProtocolCECP, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (use: uci, cecp)", s)
	}
}

// Player describes one side of the match
type Player struct {
	Name     string   `json:"name"`
	Color    Color    `json:"color"`
	Protocol Protocol `json:"protocol"`
	Path     string   `json:"path"`
}

func (p *Player) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Color)
}
