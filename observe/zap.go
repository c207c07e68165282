package observe

import (
	"go.uber.org/zap"

	"github.com/BaSui01/runtree/types"
)

// LogObserver mirrors the event stream into a zap logger. Useful as a
// debugging tap on the root controller.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a LogObserver. A nil logger defaults to zap.NewNop.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger.With(zap.String("component", "observer"))}
}

func (o *LogObserver) OnEvent(ev types.Event) {
	fields := []zap.Field{
		zap.String("type", string(ev.Type)),
		zap.String("node_id", ev.NodeID),
	}
	if ev.Name != "" {
		fields = append(fields, zap.String("name", ev.Name))
	}
	if ev.ChildID != "" {
		fields = append(fields, zap.String("child_id", ev.ChildID))
	}
	if ev.Error != "" {
		fields = append(fields, zap.String("error", ev.Error))
		o.logger.Warn("workflow event", fields...)
		return
	}
	o.logger.Debug("workflow event", fields...)
}

func (o *LogObserver) OnLog(entry types.LogEntry) {
	fields := []zap.Field{zap.String("node_id", entry.NodeID)}
	switch entry.Level {
	case types.LogError:
		o.logger.Error(entry.Message, fields...)
	case types.LogWarn:
		o.logger.Warn(entry.Message, fields...)
	case types.LogDebug:
		o.logger.Debug(entry.Message, fields...)
	default:
		o.logger.Info(entry.Message, fields...)
	}
}

func (o *LogObserver) OnStateSnapshot(node *types.NodeRecord) {
	o.logger.Debug("state snapshot",
		zap.String("node_id", node.ID),
		zap.String("status", string(node.Status)),
	)
}

func (o *LogObserver) OnTreeChanged(root *types.NodeRecord) {
	o.logger.Debug("tree changed",
		zap.String("root_id", root.ID),
		zap.Int("children", len(root.Children)),
	)
}
