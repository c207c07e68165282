package observe

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/runtree/types"
)

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewMetricsObserver("runtree", reg)

	o.OnEvent(types.Event{Type: types.EventChildAttached})
	o.OnEvent(types.Event{Type: types.EventChildAttached})
	o.OnEvent(types.Event{Type: types.EventCustom})
	o.OnLog(types.LogEntry{Level: types.LogInfo})
	o.OnStateSnapshot(types.NewNodeRecord("n", "node"))
	o.OnTreeChanged(types.NewNodeRecord("r", "root"))

	assert.Equal(t, float64(2), testutil.ToFloat64(
		o.eventsTotal.WithLabelValues(string(types.EventChildAttached))))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		o.eventsTotal.WithLabelValues(string(types.EventCustom))))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		o.logsTotal.WithLabelValues(string(types.LogInfo))))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.snapshotsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.treeChangesTotal))
}
