// Package sim800 adapts SIMCom SIM800 series modems to the cellular
// framework.
package sim800

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"i4.energy/across/at"
	"i4.energy/across/cellular"
)

// Chipset is the name the adapter is registered under.
const Chipset = "sim800"

// attachTimeout is short so a modem still autobauding answers the probe
// quickly or not at all.
const attachTimeout = time.Second

// urcPrefixes lists the notification lines the SIM800 sends on its own.
var urcPrefixes = []string{
	"+CIPRXGET: 1,",   // incoming socket data
	"+FTPGET: 1,",     // FTP transfer state change
	"+PDP: DEACT",     // PDP context lost
	"+SAPBR 1: DEACT", // bearer profile lost
}

// initCommands run in order on every attach, each after the previous one
// completed. Echo is already off when they start.
var initCommands = []string{
	at.CmdFlowControlOff,
	at.CmdVerboseErrors,
}

// Modem is a SIM800 adapter. Queries come from the embedded Generic; the
// adapter adds URC handling and the attach sequence.
type Modem struct {
	cellular.Generic

	state atomic.Int32
	// ftpGetStatus is nil until a +FTPGET: 1,<status> line was handled
	ftpGetStatus atomic.Pointer[int]
}

func init() {
	cellular.Register(Chipset, func(dev *cellular.Device) cellular.Cellular {
		return New(dev)
	})
}

// New wraps dev. Most callers allocate through a cellular.Pool instead.
func New(dev *cellular.Device) *Modem {
	return &Modem{Generic: cellular.Generic{Device: dev}}
}

// State reports the lifecycle state. Attaching also covers an attach that
// failed part way, while URCs are still dispatched to the adapter.
func (m *Modem) State() cellular.State {
	return cellular.State(m.state.Load())
}

// FTPGetStatus returns the last status code reported by a +FTPGET: 1,
// notification and whether any was seen yet.
func (m *Modem) FTPGetStatus() (int, bool) {
	if p := m.ftpGetStatus.Load(); p != nil {
		return *p, true
	}
	return 0, false
}

// ScanLine claims the SIM800 notification lines.
func (m *Modem) ScanLine(line []byte) at.ResponseType {
	if at.PrefixInTable(line, urcPrefixes) {
		return at.TypeURC
	}
	return at.TypeUnknown
}

// HandleURC records the FTP status carried by +FTPGET: 1,<status>. Other
// claimed lines, and status lines whose code does not parse, are only
// traced.
func (m *Modem) HandleURC(line []byte) {
	m.Log().Debug("URC", "line", string(line))

	var status int
	if _, err := fmt.Sscanf(string(line), "+FTPGET: 1,%d", &status); err == nil {
		m.ftpGetStatus.Store(&status)
	}
}

// Attach registers the adapter for URC dispatch and brings the modem into a
// known configuration. The probe and echo-off results are ignored. A
// failing configuration command aborts the sequence with
// cellular.ErrTransport. Nothing is rolled back: the adapter stays
// registered and in the Attaching state until Attach succeeds or Detach is
// called.
func (m *Modem) Attach(ctx context.Context) error {
	if m.Released() {
		return cellular.ErrReleased
	}
	log := m.Log()
	m.state.Store(int32(cellular.Attaching))

	m.AT.SetCallbacks(m)
	m.AT.SetTimeout(attachTimeout)

	// Aid autobauding.
	if _, err := m.AT.Command(ctx, at.CmdAt); err != nil {
		log.Debug("probe unanswered", "error", err)
	}
	if _, err := m.AT.Command(ctx, at.CmdEchoOff); err != nil {
		log.Warn("could not disable echo", "error", err)
	}

	for _, cmd := range initCommands {
		if err := m.AT.CommandSimple(ctx, "%s", cmd); err != nil {
			return fmt.Errorf("%w: %s: %w", cellular.ErrTransport, cmd, err)
		}
	}

	m.state.Store(int32(cellular.Attached))
	log.Info("modem attached")
	return nil
}

// Detach stops URC dispatch to the adapter. It does not touch the
// transport and does not release the adapter.
func (m *Modem) Detach() error {
	if m.Released() {
		return cellular.ErrReleased
	}
	m.state.Store(int32(cellular.Detaching))
	m.AT.SetCallbacks(nil)
	m.state.Store(int32(cellular.Unattached))
	m.Log().Info("modem detached")
	return nil
}
