package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BaSui01/runtree/types"
)

// MetricsObserver counts workflow activity in Prometheus metrics.
type MetricsObserver struct {
	eventsTotal      *prometheus.CounterVec
	logsTotal        *prometheus.CounterVec
	snapshotsTotal   prometheus.Counter
	treeChangesTotal prometheus.Counter
}

// NewMetricsObserver registers the workflow metrics with reg under the
// given namespace. A nil registerer uses the default registry.
func NewMetricsObserver(namespace string, reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsObserver{
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_events_total",
				Help:      "Total number of workflow events by type",
			},
			[]string{"type"},
		),
		logsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_logs_total",
				Help:      "Total number of workflow log entries by level",
			},
			[]string{"level"},
		),
		snapshotsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_state_snapshots_total",
				Help:      "Total number of state snapshots delivered",
			},
		),
		treeChangesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_tree_changes_total",
				Help:      "Total number of structural tree changes",
			},
		),
	}
}

func (o *MetricsObserver) OnEvent(ev types.Event) {
	o.eventsTotal.WithLabelValues(string(ev.Type)).Inc()
}

func (o *MetricsObserver) OnLog(entry types.LogEntry) {
	o.logsTotal.WithLabelValues(string(entry.Level)).Inc()
}

func (o *MetricsObserver) OnStateSnapshot(*types.NodeRecord) {
	o.snapshotsTotal.Inc()
}

func (o *MetricsObserver) OnTreeChanged(*types.NodeRecord) {
	o.treeChangesTotal.Inc()
}
