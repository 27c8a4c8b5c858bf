package display

import (
	"context"

	"chessmatch/internal/match"
)

// Headless draws nothing; quit comes only from signals or the HTTP API
type Headless struct {
	signals
}

func NewHeadless() *Headless {
	return &Headless{signals: newSignals()}
}

func (h *Headless) Update(match.Snapshot) {}

// WaitAck returns at once since nobody is watching
func (h *Headless) WaitAck(context.Context) error {
	return nil
}
