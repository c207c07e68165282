package observe

import (
	"github.com/BaSui01/runtree/types"
)

// Observer is the capability set implemented by consumers of the workflow
// hierarchy: visualizations, persistence layers, debuggers.
//
// Observers are typically registered once at the root controller. Mounting
// is automatic: when a child is attached anywhere in the tree, it and its
// existing subtree become visible to every ancestor-registered observer
// without re-registration.
type Observer interface {
	// OnEvent receives every event emitted anywhere in the observed subtree.
	OnEvent(ev types.Event)
	// OnLog receives every log entry appended anywhere in the observed subtree.
	OnLog(entry types.LogEntry)
	// OnStateSnapshot receives a snapshot of a node after a status change.
	OnStateSnapshot(node *types.NodeRecord)
	// OnTreeChanged receives the current root record after a structural
	// event. Consumers maintaining their own mirror replace their cached
	// view instead of applying deltas.
	OnTreeChanged(root *types.NodeRecord)
}

// Funcs adapts plain functions to the Observer interface. Nil fields are
// ignored.
type Funcs struct {
	Event       func(ev types.Event)
	Log         func(entry types.LogEntry)
	Snapshot    func(node *types.NodeRecord)
	TreeChanged func(root *types.NodeRecord)
}

func (f Funcs) OnEvent(ev types.Event) {
	if f.Event != nil {
		f.Event(ev)
	}
}

func (f Funcs) OnLog(entry types.LogEntry) {
	if f.Log != nil {
		f.Log(entry)
	}
}

func (f Funcs) OnStateSnapshot(node *types.NodeRecord) {
	if f.Snapshot != nil {
		f.Snapshot(node)
	}
}

func (f Funcs) OnTreeChanged(root *types.NodeRecord) {
	if f.TreeChanged != nil {
		f.TreeChanged(root)
	}
}

// Nop returns an observer that ignores everything.
func Nop() Observer {
	return Funcs{}
}

// Multi fans out every callback to each of the given observers in order.
func Multi(observers ...Observer) Observer {
	return multi(observers)
}

type multi []Observer

func (m multi) OnEvent(ev types.Event) {
	for _, o := range m {
		o.OnEvent(ev)
	}
}

func (m multi) OnLog(entry types.LogEntry) {
	for _, o := range m {
		o.OnLog(entry)
	}
}

func (m multi) OnStateSnapshot(node *types.NodeRecord) {
	for _, o := range m {
		o.OnStateSnapshot(node)
	}
}

func (m multi) OnTreeChanged(root *types.NodeRecord) {
	for _, o := range m {
		o.OnTreeChanged(root)
	}
}
