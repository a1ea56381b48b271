package cellular

import "errors"

var (
	// ErrNoMemory is returned by Pool.Alloc when no slot is left for a new
	// device. No instance is created.
	ErrNoMemory = errors.New("cellular: out of memory")

	// ErrUnknownChipset is returned by Pool.Alloc for a chipset name that
	// was never registered.
	ErrUnknownChipset = errors.New("cellular: unknown chipset")

	// ErrEngineInUse is returned by Pool.Alloc when the engine already
	// belongs to a live device of the pool.
	ErrEngineInUse = errors.New("cellular: engine already in use")

	// ErrTransport wraps a command that failed or timed out while a device
	// operation was talking to the modem.
	ErrTransport = errors.New("cellular: transport failure")

	// ErrAttached is returned by Pool.Free while the engine still routes
	// URCs to the device. Detach first.
	ErrAttached = errors.New("cellular: device still attached")

	// ErrReleased is returned by operations on a device that has been freed.
	ErrReleased = errors.New("cellular: device released")

	// ErrNotAllocated is returned by Pool.Free for a device the pool does
	// not own.
	ErrNotAllocated = errors.New("cellular: device not allocated by this pool")

	// ErrInvalidResponse is returned when the modem's answer to a query
	// cannot be parsed.
	ErrInvalidResponse = errors.New("cellular: invalid response")
)
