// Package metrics records operation counters and latencies and exposes
// them in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// Metrics is a set of nexus operation metrics.
// The zero value is not usable; call New.
type Metrics struct {
	set *vm.Set
}

// New creates an empty metric set.
func New() *Metrics {
	return &Metrics{set: vm.NewSet()}
}

// Observe records one operation with its outcome status and the time
// elapsed since start.
func (m *Metrics) Observe(op, entity, status string, start time.Time) {
	if m == nil {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`nexus_operations_total{op=%q,entity=%q,status=%q}`, op, entity, status)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`nexus_operation_duration_seconds{op=%q,entity=%q}`, op, entity)).UpdateDuration(start)
}

// Count returns the number of operations recorded for the label set.
func (m *Metrics) Count(op, entity, status string) uint64 {
	return m.set.GetOrCreateCounter(fmt.Sprintf(`nexus_operations_total{op=%q,entity=%q,status=%q}`, op, entity, status)).Get()
}

// WritePrometheus writes the set, followed by process metrics when
// process is true.
func (m *Metrics) WritePrometheus(w io.Writer, process bool) {
	m.set.WritePrometheus(w)
	if process {
		vm.WriteProcessMetrics(w)
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m.WritePrometheus(w, true)
	})
}
