// Package metrics exposes allocation engine counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"brigade/internal/domain/ledger"
)

// Allocation implements ledger.Instrumentation over Prometheus counters.
type Allocation struct {
	allocations    *prometheus.CounterVec
	batchesTouched prometheus.Counter
	reversals      prometheus.Counter
	writeOffs      prometheus.Counter
	lockTimeouts   prometheus.Counter
}

var _ ledger.Instrumentation = (*Allocation)(nil)

// NewAllocation registers the allocation counters on the given registerer.
func NewAllocation(reg prometheus.Registerer) *Allocation {
	m := &Allocation{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brigade",
			Subsystem: "ledger",
			Name:      "allocations_total",
			Help:      "Stock allocations by outcome.",
		}, []string{"outcome"}),
		batchesTouched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brigade",
			Subsystem: "ledger",
			Name:      "allocation_batches_touched_total",
			Help:      "Batches consumed from across committed allocations.",
		}),
		reversals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brigade",
			Subsystem: "ledger",
			Name:      "reversals_total",
			Help:      "Ticket consumption reversals applied.",
		}),
		writeOffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brigade",
			Subsystem: "ledger",
			Name:      "write_offs_total",
			Help:      "Batch write-offs recorded.",
		}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brigade",
			Subsystem: "ledger",
			Name:      "lock_timeouts_total",
			Help:      "Ingredient lock acquisitions that timed out.",
		}),
	}
	reg.MustRegister(m.allocations, m.batchesTouched, m.reversals, m.writeOffs, m.lockTimeouts)
	return m
}

func (m *Allocation) AllocationCommitted(batchesTouched int) {
	m.allocations.WithLabelValues("committed").Inc()
	m.batchesTouched.Add(float64(batchesTouched))
}

func (m *Allocation) AllocationRejected() {
	m.allocations.WithLabelValues("rejected").Inc()
}

func (m *Allocation) ReversalApplied() { m.reversals.Inc() }

func (m *Allocation) WriteOffRecorded() { m.writeOffs.Inc() }

func (m *Allocation) LockTimeout() { m.lockTimeouts.Inc() }
