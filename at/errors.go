package at

import "errors"

var (
	// ErrNoDialer is returned when an Engine is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on an
	// Engine that has no transport.
	//
	// This can occur if the Dialer returned a nil Transport or if the Engine
	// was not created via New or NewEngine.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrAlreadyClosed is returned when Close is called on an Engine that has
	// already been closed, and by commands submitted after Close.
	ErrAlreadyClosed = errors.New("engine already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// already reading from the same transport.
	ErrLoopRunning = errors.New("engine loop already running")

	// ErrCommandFailed is returned when the modem answers a command with a
	// final error result (ERROR, +CME ERROR, +CMS ERROR, NO CARRIER, ...).
	// The returned error carries the modem's line.
	ErrCommandFailed = errors.New("command failed")
)
