// Package cellular is a chipset agnostic modem framework on top of the AT
// engine. Chipset adapters implement Cellular, usually by embedding Generic
// for the queries every modem answers the same way, and register a
// constructor so a Pool can allocate them by name.
package cellular

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Cellular is the capability set every chipset adapter provides.
type Cellular interface {
	// Base returns the chipset agnostic device record.
	Base() *Device
	// State reports where the adapter is in its attach/detach lifecycle.
	State() State

	// Attach registers the adapter with the engine and configures the modem.
	Attach(ctx context.Context) error
	// Detach unregisters the adapter from the engine. The transport is left
	// untouched.
	Detach() error

	IMEI(ctx context.Context) (string, error)
	ICCID(ctx context.Context) (string, error)
	// CREG returns the network registration status (<stat> of +CREG).
	CREG(ctx context.Context) (int, error)
	// RSSI returns the raw signal strength (<rssi> of +CSQ); 99 is unknown.
	RSSI(ctx context.Context) (int, error)
	ClockGetTime(ctx context.Context) (time.Time, error)
	ClockSetTime(ctx context.Context, t time.Time) error
}

// Device is the record shared by all chipset adapters. It is owned by the
// Pool that allocated it.
type Device struct {
	// ID identifies the device within its Pool.
	ID      uint64
	Chipset string
	AT      Engine
	Logger  *slog.Logger

	released atomic.Bool
}

// Released reports whether the device has been freed.
func (d *Device) Released() bool {
	return d.released.Load()
}

// Log returns the device logger, falling back to the default logger.
func (d *Device) Log() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// State is the attach/detach lifecycle position of an adapter.
type State int32

const (
	Unattached State = iota
	Attaching
	Attached
	Detaching
)

func (s State) String() string {
	switch s {
	case Unattached:
		return "unattached"
	case Attaching:
		return "attaching"
	case Attached:
		return "attached"
	case Detaching:
		return "detaching"
	default:
		return "invalid"
	}
}
