package at

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Callbacks lets a chipset adapter claim unsolicited lines before the
// generic classification runs.
//
// ScanLine must be a pure predicate: it is called for every received line
// and returns TypeURC for lines the adapter owns, TypeUnknown otherwise.
// HandleURC is then called exactly once for each claimed line. Both run on
// the Engine's receive goroutine, one line at a time, and must not submit
// commands to the Engine or block.
type Callbacks interface {
	ScanLine(line []byte) ResponseType
	HandleURC(line []byte)
}

// Engine drives the AT conversation with a modem over a Transport.
// A single Loop goroutine owns all reads; commands are handed to it one at
// a time and each waits for its final result line or its timeout.
type Engine struct {
	// transport provides the physical connection to the modem (serial, TCP, etc.)
	transport Transport
	logger    *slog.Logger
	// timeout holds the default per-command time.Duration
	timeout atomic.Int64

	// cbMu serializes callback registration with dispatch
	cbMu      sync.Mutex
	callbacks Callbacks

	// urcChan receives generic Unsolicited Result Codes nobody claimed
	urcChan chan string
	// commands queues AT command requests for the Loop to process
	commands chan *commandRequest

	closed      atomic.Bool
	loopRunning atomic.Bool
}

// commandRequest represents an AT command request to be executed by the Loop.
type commandRequest struct {
	cmd      string
	respChan chan commandResponse
	ctx      context.Context
}

// commandResponse contains the result of an AT command execution.
type commandResponse struct {
	// response holds the information lines, without the final result code
	response string
	err      error
}

// New dials the modem described by config and returns an Engine bound to
// the resulting Transport. Loop must be started before commands are issued.
func New(ctx context.Context, config Config) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}
	return NewEngine(transport, config), nil
}

// NewEngine wraps an already connected Transport. The Dialer in config is
// ignored.
func NewEngine(transport Transport, config Config) *Engine {
	config.setDefaults()
	e := &Engine{
		transport: transport,
		logger:    config.Logger,
		urcChan:   make(chan string, config.URCBuffer),
		commands:  make(chan *commandRequest),
	}
	e.timeout.Store(int64(config.ATTimeout))
	return e
}

// SetCallbacks installs cb as the owner of chipset specific URCs,
// replacing any previous registration. Passing nil unregisters. Once
// SetCallbacks returns, no handler of the previous owner is running and
// none will be started.
func (e *Engine) SetCallbacks(cb Callbacks) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.callbacks = cb
}

// Callbacks returns the current registration, or nil.
func (e *Engine) Callbacks() Callbacks {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	return e.callbacks
}

// SetTimeout changes the default per-command timeout.
func (e *Engine) SetTimeout(d time.Duration) {
	e.timeout.Store(int64(d))
}

// Timeout returns the default per-command timeout.
func (e *Engine) Timeout() time.Duration {
	return time.Duration(e.timeout.Load())
}

// URC returns a read-only channel that receives generic Unsolicited Result
// Codes (incoming SMS, RING, ...) not claimed by the registered Callbacks.
// The channel is buffered, but may drop some URC if not consumed fast
// enough.
func (e *Engine) URC() <-chan string {
	return e.urcChan
}

// Loop is the main event loop that handles all transport I/O operations.
// It must be called exactly once after New and before any command is
// issued. It runs until ctx is cancelled or the transport reports EOF or
// an error, and it is the only goroutine that reads from the transport.
//
// Usage:
//
//	e, err := at.New(ctx, config)
//	if err != nil { return err }
//
//	go e.Loop(ctx)
//
//	resp, err := e.Command(ctx, "AT+CSQ")
func (e *Engine) Loop(ctx context.Context) error {
	if e.transport == nil {
		return ErrNotInitialized
	}
	if !e.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer e.loopRunning.Store(false)

	scanner := bufio.NewScanner(e.transport)
	scanner.Split(Splitter)

	// Channels for tokens and errors from the scanner goroutine
	tokens := make(chan string, 10)
	scanErrs := make(chan error, 1)

	go func() {
		defer close(tokens)
		for scanner.Scan() {
			token := scanner.Text()
			if token != "" {
				select {
				case tokens <- token:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case scanErrs <- err:
			case <-ctx.Done():
			}
		}
	}()

	// Current command being processed
	var current *commandRequest
	var lines []string

	finish := func(resp commandResponse) {
		current.respChan <- resp
		current = nil
		lines = nil
	}

	for {
		// Accept a new command only when idle; watch the deadline of the
		// one in flight otherwise.
		var commands chan *commandRequest
		var expired <-chan struct{}
		if current == nil {
			commands = e.commands
		} else {
			expired = current.ctx.Done()
		}

		select {
		case <-ctx.Done():
			if current != nil {
				finish(commandResponse{err: ctx.Err()})
			}
			return ctx.Err()

		case req := <-commands:
			wire := strings.TrimSpace(req.cmd) + "\r"
			e.logger.Debug("AT command", "cmd", req.cmd)
			if _, err := e.transport.Write([]byte(wire)); err != nil {
				req.respChan <- commandResponse{err: fmt.Errorf("write command %q: %w", req.cmd, err)}
				continue
			}
			current = req

		case <-expired:
			finish(commandResponse{err: fmt.Errorf("command %q: %w", current.cmd, current.ctx.Err())})

		case token, ok := <-tokens:
			if !ok {
				if current != nil {
					finish(commandResponse{err: io.EOF})
				}
				return io.EOF
			}

			if e.dispatchURC(token) {
				continue
			}

			switch Classify(token) {
			case TypeURC:
				select {
				case e.urcChan <- token:
				default:
					e.logger.Warn("URC dropped, channel full", "line", token)
				}

			case TypeFinal:
				// Orphaned final results are ignored
				if current == nil {
					continue
				}
				response := strings.Join(lines, "\n")
				if token == OK {
					finish(commandResponse{response: response})
				} else {
					finish(commandResponse{response: response, err: fmt.Errorf("%w: %s", ErrCommandFailed, token)})
				}

			case TypeData:
				if current == nil {
					continue
				}
				// Echo of the command in flight (echo still enabled)
				if len(lines) == 0 && token == strings.TrimSpace(current.cmd) {
					continue
				}
				lines = append(lines, token)

			case TypePrompt:
				if current != nil {
					lines = append(lines, token)
					finish(commandResponse{response: strings.Join(lines, "\n")})
				}
			}

		case err := <-scanErrs:
			if current != nil {
				finish(commandResponse{err: fmt.Errorf("read error: %w", err)})
			}
			return fmt.Errorf("scanner error: %w", err)
		}
	}
}

// dispatchURC offers line to the registered Callbacks and reports whether
// it was claimed.
func (e *Engine) dispatchURC(line string) bool {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()

	if e.callbacks == nil {
		return false
	}
	b := []byte(line)
	if e.callbacks.ScanLine(b) != TypeURC {
		return false
	}
	e.callbacks.HandleURC(b)
	return true
}

// Command sends an AT command to the modem and waits for the response.
// The returned text holds the information lines the modem sent before the
// final result code, joined by "\n". A final error result is reported as
// ErrCommandFailed; an expired deadline as a wrapped
// context.DeadlineExceeded. If ctx has no deadline the Engine timeout
// applies.
func (e *Engine) Command(ctx context.Context, cmd string) (string, error) {
	if e.closed.Load() {
		return "", ErrAlreadyClosed
	}
	if e.transport == nil {
		return "", ErrNotInitialized
	}

	// Apply per-command timeout if context has none
	if _, ok := ctx.Deadline(); !ok {
		if timeout := e.Timeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	req := &commandRequest{
		cmd:      cmd,
		respChan: make(chan commandResponse, 1), // Buffered so the Loop never blocks
		ctx:      ctx,
	}

	select {
	case e.commands <- req:
	case <-ctx.Done():
		return "", fmt.Errorf("command %q not sent: %w", cmd, ctx.Err())
	}

	select {
	case resp := <-req.respChan:
		return resp.response, resp.err
	case <-ctx.Done():
		return "", fmt.Errorf("command %q: %w", cmd, ctx.Err())
	}
}

// CommandSimple formats a command, sends it and discards the response text.
func (e *Engine) CommandSimple(ctx context.Context, format string, args ...any) error {
	_, err := e.Command(ctx, fmt.Sprintf(format, args...))
	return err
}

// Close shuts down the engine by closing the transport, which in turn ends
// Loop. After Close, the Engine cannot be reused.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	if e.transport != nil {
		return e.transport.Close()
	}
	return nil
}
