package mailpool

import "time"

// PoolMetrics is a snapshot of pool activity.
type PoolMetrics struct {
	// Envelope counts
	Submitted uint64 `json:"submitted"`
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Aborted   uint64 `json:"aborted"`
	Spooled   uint64 `json:"spooled"`

	// Queue and worker state
	QueueDepth     int `json:"queue_depth"`
	ActiveWorkers  int `json:"active_workers"`
	MaxConcurrency int `json:"max_concurrency"`

	// Worker lifecycle
	WorkersSpawned uint64 `json:"workers_spawned"`
	WorkersRetired uint64 `json:"workers_retired"`

	// Timing
	AverageSendTime time.Duration `json:"average_send_time"`
	MaxSendTime     time.Duration `json:"max_send_time"`
}

// Metrics returns a point-in-time snapshot of the pool's counters and
// queue/worker state.
func (p *Pool) Metrics() PoolMetrics {
	snap := p.metrics.Snapshot()

	p.mu.Lock()
	depth := len(p.queue)
	active := len(p.workers)
	p.mu.Unlock()

	return PoolMetrics{
		Submitted:       snap.Submitted,
		Delivered:       snap.Delivered,
		Failed:          snap.Failed,
		Aborted:         snap.Aborted,
		Spooled:         snap.Spooled,
		QueueDepth:      depth,
		ActiveWorkers:   active,
		MaxConcurrency:  p.maxConcurrency,
		WorkersSpawned:  snap.WorkersSpawned,
		WorkersRetired:  snap.WorkersRetired,
		AverageSendTime: snap.AverageSendTime,
		MaxSendTime:     snap.MaxSendTime,
	}
}

// ResetMetrics zeroes the cumulative counters. Queue depth and worker counts
// are live values and are unaffected.
func (p *Pool) ResetMetrics() {
	p.metrics.Reset()
}
