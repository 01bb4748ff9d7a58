// Package pool implements a thread-safe database connection pool that is
// generic over a pluggable backend driver. It bounds concurrency between
// configurable min/max watermarks, recycles connections, and enforces
// liveness and lifetime policy.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/guileen/dbpool/logger"
)

// Pool manages a bounded set of backend connections. All bookkeeping
// (state transitions, counters, idle-set membership) happens under one
// internal lock; backend I/O happens outside it so unrelated Acquire and
// Release calls are never stalled on the network.
type Pool struct {
	cfg     Config
	backend Backend

	mu       sync.Mutex
	conns    map[*Conn]struct{} // every live record, idle and in-use
	idle     []*Conn            // LRU order: least recently used at the front
	waiters  []chan *Conn       // FIFO queue of blocked Acquire calls
	reserved int                // slots held by in-flight connects and validations
	closed   bool

	stats counters
}

// New creates a pool and eagerly warms it up to MinConnections. Warm-up
// connect failures are transient: they are logged and counted but never
// fail creation; the missing slots are re-established lazily by later
// Acquire calls. Only an invalid configuration fails creation.
func New(cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	p := &Pool{
		cfg:     cfg,
		backend: cfg.Backend,
		conns:   make(map[*Conn]struct{}),
	}

	for i := 0; i < cfg.MinConnections; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
		h, err := p.backend.Connect(ctx, cfg.ConnString)
		cancel()
		if err != nil || h == nil {
			p.stats.errors++
			logger.Warn("pool warm-up connect failed", "slot", i, logger.ErrorField(err))
			continue
		}
		c := newConn(p, h)
		c.state = StateIdle
		p.conns[c] = struct{}{}
		p.idle = append(p.idle, c)
		p.stats.created++
	}

	logger.Info("connection pool created",
		logger.BackendKind(cfg.Kind),
		"min_connections", cfg.MinConnections,
		"max_connections", cfg.MaxConnections,
		"warm_connections", len(p.idle))
	return p, nil
}

// Acquire borrows a connection from the pool. Idle records are preferred
// over creating new ones (least recently used first), creating is
// preferred over blocking, and the call blocks only at max capacity.
// Blocking is bounded by Config.ConnectTimeout and any earlier ctx
// deadline; on expiry the caller holds no resource and must re-ask with a
// fresh call.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	deadline := time.Now().Add(p.cfg.ConnectTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	waited := false
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		// Prefer an idle record.
		if len(p.idle) > 0 {
			c := p.idle[0]
			p.idle = p.idle[1:]
			if p.cfg.ValidateOnAcquire {
				// Hold the slot while pinging outside the lock. The record
				// is out of both the idle set and the live set, so no other
				// caller and no Close can touch its handle.
				delete(p.conns, c)
				p.reserved++
				p.mu.Unlock()

				pingCtx, cancel := context.WithDeadline(context.Background(), deadline)
				err := p.backend.Ping(pingCtx, c.handle)
				cancel()

				p.mu.Lock()
				p.reserved--
				if err != nil {
					c.state = StateError
					p.stats.errors++
					p.stats.closed++
					p.wakeOneLocked()
					p.mu.Unlock()
					p.disconnectQuiet(c)
					logger.Warn("validation ping failed, connection discarded",
						logger.ConnID(c.id), logger.ErrorField(err))
					continue // retry selection; does not count as a wait
				}
				if p.closed {
					p.mu.Unlock()
					p.disconnectQuiet(c)
					return nil, ErrPoolClosed
				}
				p.conns[c] = struct{}{}
			}
			c.state = StateInUse
			c.lastUsed = time.Now()
			p.stats.acquired++
			p.mu.Unlock()
			return c, nil
		}

		// Below max capacity: create a new record. The connect happens
		// outside the lock against a reserved slot.
		if len(p.conns)+p.reserved < p.cfg.MaxConnections {
			p.reserved++
			p.mu.Unlock()

			connectCtx, cancel := context.WithDeadline(ctx, deadline)
			h, err := p.backend.Connect(connectCtx, p.cfg.ConnString)
			cancel()

			p.mu.Lock()
			p.reserved--
			if p.closed {
				p.mu.Unlock()
				if err == nil && h != nil {
					p.disconnectHandle(h)
				}
				return nil, ErrPoolClosed
			}
			if err != nil || h == nil {
				p.stats.errors++
				if len(p.idle) > 0 {
					// A connection was released meanwhile; use it instead
					// of propagating the transient failure.
					p.mu.Unlock()
					continue
				}
				p.wakeOneLocked() // the reserved slot is free again
				p.mu.Unlock()
				if err == nil {
					return nil, newPoolError(codeBackendConnect, "backend returned a nil handle")
				}
				return nil, wrapPoolError(err, codeBackendConnect, "backend connect failed")
			}
			c := newConn(p, h)
			c.state = StateInUse
			p.conns[c] = struct{}{}
			p.stats.created++
			p.stats.acquired++
			p.mu.Unlock()
			return c, nil
		}

		// At max capacity: wait for a release or a freed slot.
		if !waited {
			p.stats.waits++
			waited = true
		}
		ch := make(chan *Conn, 1)
		p.waiters = append(p.waiters, ch)
		p.mu.Unlock()

		select {
		case c, ok := <-ch:
			if !ok {
				return nil, ErrPoolClosed
			}
			if c == nil {
				continue // a slot freed up; re-evaluate
			}
			// Direct handoff from a releaser.
			p.mu.Lock()
			if p.closed {
				p.mu.Unlock()
				return nil, ErrPoolClosed
			}
			c.state = StateInUse
			c.lastUsed = time.Now()
			p.stats.acquired++
			p.mu.Unlock()
			return c, nil
		case <-timer.C:
			p.abandonWait(ch)
			return nil, newPoolError(codeAcquireTimeout,
				"no connection became available within %s", p.cfg.ConnectTimeout)
		case <-ctx.Done():
			p.abandonWait(ch)
			return nil, wrapPoolError(ctx.Err(), codeAcquireTimeout, "acquire canceled")
		}
	}
}

// Release returns a borrowed connection to the pool. Releasing a
// connection that is not currently in use by this pool is rejected
// without corrupting pool state. A record past its lifetime or over the
// error threshold is destroyed instead of going back to idle.
func (p *Pool) Release(c *Conn) error {
	if c == nil || c.pool != p {
		return newPoolError(codeInvalidRelease, "connection does not belong to this pool")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return wrapPoolError(ErrPoolClosed, codeInvalidRelease, "release on closed pool")
	}
	if _, ok := p.conns[c]; !ok || c.state != StateInUse {
		state := c.state
		p.mu.Unlock()
		return newPoolError(codeInvalidRelease, "connection %s is %s, not in use", c.id, state)
	}

	p.stats.released++
	now := time.Now()
	expired := p.cfg.MaxLifetime > 0 && now.Sub(c.createdAt) > p.cfg.MaxLifetime
	if expired || c.errorCount >= p.cfg.MaxErrorCount {
		if expired {
			c.state = StateClosed
		} else {
			c.state = StateError
		}
		delete(p.conns, c)
		p.stats.closed++
		p.wakeOneLocked() // the slot is free for a waiter to create into
		p.mu.Unlock()
		p.disconnectQuiet(c)
		logger.Debug("connection destroyed on release",
			logger.ConnID(c.id), "expired", expired, "error_count", c.errorCount)
		return nil
	}

	c.state = StateIdle
	c.lastUsed = now
	if len(p.waiters) > 0 {
		// Direct handoff: the record leaves the idle path entirely, its
		// only reference is the waiter's buffered channel.
		ch := p.waiters[0]
		p.waiters = p.waiters[1:]
		ch <- c
	} else {
		p.idle = append(p.idle, c) // most recently used at the back
	}
	p.mu.Unlock()
	return nil
}

// CloseIdle destroys idle connections whose idle time exceeds MaxIdleTime
// or whose age exceeds MaxLifetime, but never shrinks the pool below
// MinConnections. Returns the number of connections destroyed. The call
// never blocks on a waiter; it is meant to be invoked periodically by the
// caller.
func (p *Pool) CloseIdle() int {
	now := time.Now()
	var victims []*Conn

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}
	kept := p.idle[:0]
	for _, c := range p.idle {
		stale := now.Sub(c.lastUsed) > p.cfg.MaxIdleTime ||
			(p.cfg.MaxLifetime > 0 && now.Sub(c.createdAt) > p.cfg.MaxLifetime)
		if stale && len(p.conns) > p.cfg.MinConnections {
			c.state = StateClosed
			delete(p.conns, c)
			p.stats.closed++
			victims = append(victims, c)
			continue
		}
		kept = append(kept, c)
	}
	p.idle = kept
	p.mu.Unlock()

	for _, c := range victims {
		p.disconnectQuiet(c)
	}
	if len(victims) > 0 {
		logger.Debug("idle connections reaped", "count", len(victims))
	}
	return len(victims)
}

// Close destroys the pool. Every remaining record is force-disconnected,
// including records currently borrowed by callers: their handles turn
// invalid (IsValid reports false and Release is rejected), since the pool
// itself is being torn down. Blocked Acquire calls fail immediately.
// Close is idempotent and returns the first disconnect error, if any.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	victims := make([]*Conn, 0, len(p.conns))
	for c := range p.conns {
		c.state = StateClosed
		p.stats.closed++
		victims = append(victims, c)
	}
	p.conns = make(map[*Conn]struct{})
	p.idle = nil
	for _, ch := range p.waiters {
		close(ch)
	}
	p.waiters = nil
	p.mu.Unlock()

	var firstErr error
	for _, c := range victims {
		if err := p.disconnect(c); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logger.Warn("disconnect failed during pool close",
				logger.ConnID(c.id), logger.ErrorField(err))
		}
	}
	logger.Info("connection pool closed", "connections_destroyed", len(victims))
	return firstErr
}

// wakeOneLocked signals the first waiter that capacity may have freed up.
// A nil send means "re-evaluate", not a handoff. Caller must hold p.mu.
func (p *Pool) wakeOneLocked() {
	if len(p.waiters) == 0 {
		return
	}
	ch := p.waiters[0]
	p.waiters = p.waiters[1:]
	ch <- nil
}

// abandonWait withdraws a timed-out waiter. If a handoff raced the
// timeout, the connection is recovered from the channel and re-pooled so
// it is never lost: a timed-out caller must not receive a connection
// without re-asking.
func (p *Pool) abandonWait(ch chan *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}

	// Already popped: the send, if any, happened under the lock before we
	// got here, so a non-blocking receive is conclusive.
	select {
	case c, ok := <-ch:
		if !ok {
			return
		}
		if c != nil {
			p.repoolLocked(c)
			return
		}
		// A slot-free wakeup landed on an abandoned waiter; pass it on so
		// it is not lost.
		p.wakeOneLocked()
	default:
	}
}

// repoolLocked puts a recovered handoff record back into circulation.
// Caller must hold p.mu.
func (p *Pool) repoolLocked(c *Conn) {
	if p.closed {
		// Close already disconnected the record.
		return
	}
	if len(p.waiters) > 0 {
		ch := p.waiters[0]
		p.waiters = p.waiters[1:]
		ch <- c
		return
	}
	p.idle = append(p.idle, c)
}

// disconnect tears down one record's backend handle, bounded by the
// connect timeout.
func (p *Pool) disconnect(c *Conn) error {
	return p.disconnectHandle(c.handle)
}

func (p *Pool) disconnectHandle(h Handle) error {
	if h == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnectTimeout)
	defer cancel()
	return p.backend.Disconnect(ctx, h)
}

// disconnectQuiet tears down a record's handle, counting and logging any
// failure instead of returning it.
func (p *Pool) disconnectQuiet(c *Conn) {
	if err := p.disconnect(c); err != nil {
		p.mu.Lock()
		p.stats.errors++
		p.mu.Unlock()
		logger.Warn("backend disconnect failed", logger.ConnID(c.id), logger.ErrorField(err))
	}
}
