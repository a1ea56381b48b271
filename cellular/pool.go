package cellular

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"

	"i4.energy/across/at"
)

// DefaultCapacity is the number of devices a Pool holds unless configured
// otherwise.
const DefaultCapacity = 8

// Constructor builds a chipset adapter around a freshly allocated Device.
type Constructor func(dev *Device) Cellular

var (
	chipsetsMu sync.RWMutex
	chipsets   = make(map[string]Constructor)
)

// Register makes a chipset adapter available by name. It panics if called
// twice with the same name or with a nil constructor.
func Register(name string, ctor Constructor) {
	chipsetsMu.Lock()
	defer chipsetsMu.Unlock()
	if ctor == nil {
		panic("cellular: Register constructor is nil")
	}
	if _, dup := chipsets[name]; dup {
		panic("cellular: Register called twice for chipset " + name)
	}
	chipsets[name] = ctor
}

// Chipsets returns the sorted names of the registered chipsets.
func Chipsets() []string {
	chipsetsMu.RLock()
	defer chipsetsMu.RUnlock()
	return slices.Sorted(maps.Keys(chipsets))
}

// Pool owns the devices it allocates. A device is addressed by its ID and
// stays valid until Free; the pool refuses to free a device the engine
// still dispatches to.
type Pool struct {
	mu       sync.Mutex
	capacity int
	nextID   uint64
	live     map[uint64]Cellular
	logger   *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithCapacity limits the number of live devices. Zero or less means no
// device can be allocated.
func WithCapacity(n int) PoolOption {
	return func(p *Pool) {
		p.capacity = n
	}
}

// WithLogger sets the logger handed to allocated devices.
func WithLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = l
	}
}

func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		capacity: DefaultCapacity,
		live:     make(map[uint64]Cellular),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Alloc creates a zeroed adapter for chipset bound to engine. It fails with
// ErrNoMemory when the pool is full and with ErrEngineInUse when another
// live device already drives engine, since an engine dispatches URCs to a
// single owner. Nothing is registered in either case.
func (p *Pool) Alloc(chipset string, engine Engine) (Cellular, error) {
	chipsetsMu.RLock()
	ctor, ok := chipsets[chipset]
	chipsetsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChipset, chipset)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.live) >= p.capacity {
		return nil, ErrNoMemory
	}
	if engine != nil {
		for _, c := range p.live {
			if c.Base().AT == engine {
				return nil, ErrEngineInUse
			}
		}
	}

	id := p.nextID + 1
	dev := &Device{
		ID:      id,
		Chipset: chipset,
		AT:      engine,
		Logger:  p.logger.With("chipset", chipset, "device", id),
	}
	c := ctor(dev)
	if c == nil {
		return nil, ErrNoMemory
	}

	p.nextID = id
	p.live[id] = c
	dev.Log().Debug("device allocated")
	return c, nil
}

// Free releases c. The caller must have detached it: while the engine
// still holds c as its callbacks Free returns ErrAttached and c stays
// allocated.
func (p *Pool) Free(c Cellular) error {
	if c == nil {
		return ErrNotAllocated
	}
	dev := c.Base()

	p.mu.Lock()
	defer p.mu.Unlock()

	if owned, ok := p.live[dev.ID]; !ok || owned != c {
		return ErrNotAllocated
	}
	if owner, ok := c.(at.Callbacks); ok && dev.AT != nil {
		if cb := dev.AT.Callbacks(); cb != nil && cb == owner {
			return ErrAttached
		}
	}

	dev.released.Store(true)
	delete(p.live, dev.ID)
	dev.Log().Debug("device freed")
	return nil
}

// Lookup returns the live device with the given ID.
func (p *Pool) Lookup(id uint64) (Cellular, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.live[id]
	return c, ok
}

// List returns the live devices ordered by ID.
func (p *Pool) List() []Cellular {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Cellular, 0, len(p.live))
	for _, c := range p.live {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Base().ID < out[j].Base().ID
	})
	return out
}

// Len returns the number of live devices.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
