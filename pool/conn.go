package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State describes the lifecycle state of a connection record.
type State int32

const (
	// StateIdle means the record is owned by the pool and available
	StateIdle State = iota
	// StateInUse means the record is borrowed by a caller
	StateInUse
	// StateClosed means the record has been destroyed
	StateClosed
	// StateError means the record was destroyed after a failed validation
	// or too many execute errors
	StateError
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInUse:
		return "in_use"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Conn is a connection record: one backend handle plus pool-owned
// metadata. Records are owned by the pool for their whole lifetime; a
// record returned by Acquire is borrowed and must be returned via
// Release. All state transitions happen under the pool lock. The backend
// handle itself is used outside the lock, exclusively by the borrowing
// caller until Release.
type Conn struct {
	id     string
	pool   *Pool
	handle Handle

	// Guarded by pool.mu
	state      State
	createdAt  time.Time
	lastUsed   time.Time
	errorCount int
}

func newConn(p *Pool, h Handle) *Conn {
	now := time.Now()
	return &Conn{
		id:        uuid.NewString(),
		pool:      p,
		handle:    h,
		createdAt: now,
		lastUsed:  now,
	}
}

// ID returns the record's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// Handle returns the raw backend handle. The caller owns it exclusively
// until Release.
func (c *Conn) Handle() Handle {
	return c.handle
}

// State returns the record's current lifecycle state.
func (c *Conn) State() State {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	return c.state
}

// IsValid reports whether the record is currently borrowed from an open
// pool and safe to use. It turns false after Release and after the pool
// is closed.
func (c *Conn) IsValid() bool {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	return !c.pool.closed && c.state == StateInUse
}

// Execute forwards a query to the backend adapter on this record's
// handle. A backend failure increments the record's error count but does
// not close the connection; closing is deferred to the release and reap
// policy, so the caller can keep using a connection that just failed once.
func (c *Conn) Execute(ctx context.Context, query string) error {
	p := c.pool

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	if c.state != StateInUse {
		state := c.state
		p.mu.Unlock()
		return newPoolError(codeConnInvalid, "execute on %s connection %s", state, c.id)
	}
	h := c.handle
	p.mu.Unlock()

	if err := p.backend.Execute(ctx, h, query); err != nil {
		p.mu.Lock()
		c.errorCount++
		p.stats.errors++
		p.mu.Unlock()
		return wrapPoolError(err, codeBackendExecute, "execute failed on connection %s", c.id)
	}
	return nil
}
