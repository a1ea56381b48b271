package cellular

//go:generate go tool mockgen -source=engine.go -destination=mock_engine.go -package=cellular

import (
	"context"
	"time"

	"i4.energy/across/at"
)

// Engine is the part of the AT engine a Device drives. *at.Engine
// satisfies it.
type Engine interface {
	// SetCallbacks registers the chipset's URC classifier and handler,
	// replacing any previous registration; nil unregisters.
	SetCallbacks(cb at.Callbacks)
	// Callbacks returns the current registration, or nil.
	Callbacks() at.Callbacks
	// SetTimeout changes the default per-command timeout.
	SetTimeout(d time.Duration)
	// Command sends cmd and returns the information lines of the response.
	Command(ctx context.Context, cmd string) (string, error)
	// CommandSimple formats and sends a command, discarding the response text.
	CommandSimple(ctx context.Context, format string, args ...any) error
}

var _ Engine = (*at.Engine)(nil)
