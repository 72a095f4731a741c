// Package metrics collects dispatch counters for the mail pool.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector accumulates pool activity with atomic counters so the hot path
// never takes a lock for accounting.
type Collector struct {
	submitted uint64
	delivered uint64
	failed    uint64
	aborted   uint64

	workersSpawned uint64
	workersRetired uint64

	sendCount     uint64
	totalSendTime int64 // nanoseconds
	maxSendTime   int64 // nanoseconds

	spooled uint64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Submitted uint64
	Delivered uint64
	Failed    uint64
	Aborted   uint64

	WorkersSpawned uint64
	WorkersRetired uint64

	AverageSendTime time.Duration
	MaxSendTime     time.Duration

	Spooled uint64
}

func (c *Collector) IncSubmitted() { atomic.AddUint64(&c.submitted, 1) }
func (c *Collector) IncDelivered() { atomic.AddUint64(&c.delivered, 1) }
func (c *Collector) IncFailed()    { atomic.AddUint64(&c.failed, 1) }
func (c *Collector) IncAborted()   { atomic.AddUint64(&c.aborted, 1) }
func (c *Collector) IncSpawned()   { atomic.AddUint64(&c.workersSpawned, 1) }
func (c *Collector) IncRetired()   { atomic.AddUint64(&c.workersRetired, 1) }
func (c *Collector) IncSpooled()   { atomic.AddUint64(&c.spooled, 1) }

// ObserveSend records the wall time of one completed transmission.
func (c *Collector) ObserveSend(d time.Duration) {
	ns := d.Nanoseconds()
	atomic.AddUint64(&c.sendCount, 1)
	atomic.AddInt64(&c.totalSendTime, ns)
	for {
		max := atomic.LoadInt64(&c.maxSendTime)
		if ns <= max || atomic.CompareAndSwapInt64(&c.maxSendTime, max, ns) {
			return
		}
	}
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		Submitted:      atomic.LoadUint64(&c.submitted),
		Delivered:      atomic.LoadUint64(&c.delivered),
		Failed:         atomic.LoadUint64(&c.failed),
		Aborted:        atomic.LoadUint64(&c.aborted),
		WorkersSpawned: atomic.LoadUint64(&c.workersSpawned),
		WorkersRetired: atomic.LoadUint64(&c.workersRetired),
		MaxSendTime:    time.Duration(atomic.LoadInt64(&c.maxSendTime)),
		Spooled:        atomic.LoadUint64(&c.spooled),
	}
	if count := atomic.LoadUint64(&c.sendCount); count > 0 {
		s.AverageSendTime = time.Duration(atomic.LoadInt64(&c.totalSendTime)) / time.Duration(count)
	}
	return s
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	atomic.StoreUint64(&c.submitted, 0)
	atomic.StoreUint64(&c.delivered, 0)
	atomic.StoreUint64(&c.failed, 0)
	atomic.StoreUint64(&c.aborted, 0)
	atomic.StoreUint64(&c.workersSpawned, 0)
	atomic.StoreUint64(&c.workersRetired, 0)
	atomic.StoreUint64(&c.sendCount, 0)
	atomic.StoreInt64(&c.totalSendTime, 0)
	atomic.StoreInt64(&c.maxSendTime, 0)
	atomic.StoreUint64(&c.spooled, 0)
}
