package pool

// Stats is a point-in-time snapshot of pool statistics, taken under the
// pool lock so the gauges are internally consistent:
// ActiveConnections + IdleConnections == TotalConnections.
type Stats struct {
	TotalConnections  int `json:"total_connections"`
	ActiveConnections int `json:"active_connections"`
	IdleConnections   int `json:"idle_connections"`

	// Monotonic counters over the pool's lifetime
	TotalAcquired uint64 `json:"total_acquired"`
	TotalReleased uint64 `json:"total_released"`
	TotalCreated  uint64 `json:"total_created"`
	TotalClosed   uint64 `json:"total_closed"`
	TotalErrors   uint64 `json:"total_errors"`
	WaitCount     uint64 `json:"wait_count"`
}

// counters holds the mutable monotonic counters, guarded by the pool lock.
type counters struct {
	acquired uint64
	released uint64
	created  uint64
	closed   uint64
	errors   uint64
	waits    uint64
}

// Stats returns a snapshot of the pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		TotalConnections:  len(p.conns),
		ActiveConnections: len(p.conns) - len(p.idle),
		IdleConnections:   len(p.idle),
		TotalAcquired:     p.stats.acquired,
		TotalReleased:     p.stats.released,
		TotalCreated:      p.stats.created,
		TotalClosed:       p.stats.closed,
		TotalErrors:       p.stats.errors,
		WaitCount:         p.stats.waits,
	}
}
