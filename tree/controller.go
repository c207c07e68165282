package tree

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/runtree/observe"
	"github.com/BaSui01/runtree/types"
)

// Controller is the live, in-memory unit of work. It owns a position in the
// runtime tree, a mirrored node record, and the observers registered on it.
//
// A controller is mutated only through its own attach/detach/emit
// operations, which run to completion before yielding. Callers must not
// invoke attach or detach concurrently on the same parent without external
// serialization.
type Controller struct {
	id   string
	name string

	mu       sync.Mutex
	status   types.Status
	parent   *Controller
	children []*Controller
	record   *types.NodeRecord

	obsMu     sync.Mutex
	observers []observe.Observer
	events    *observe.Observable[types.Event]

	redaction map[string]types.FieldPolicy
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a controller at construction.
type Option func(*options)

type options struct {
	id        string
	parent    *Controller
	logger    *zap.Logger
	observers []observe.Observer
	metadata  map[string]any
	redaction map[string]types.FieldPolicy
	now       func() time.Time
}

// WithParent attaches the new controller under parent at construction.
func WithParent(parent *Controller) Option {
	return func(o *options) { o.parent = parent }
}

// WithID overrides the generated identity. Intended for replay and tests.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver registers an observer at construction.
func WithObserver(obs ...observe.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// WithMetadata seeds the node record's metadata.
func WithMetadata(meta map[string]any) Option {
	return func(o *options) { o.metadata = meta }
}

// WithRedaction sets the per-field snapshot policy table. The table is
// fixed at construction; there is no global registry keyed by type.
func WithRedaction(policy map[string]types.FieldPolicy) Option {
	return func(o *options) { o.redaction = policy }
}

// WithClock overrides the event timestamp source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a controller in the idle status. When WithParent is given the
// new controller is attached immediately; a freshly constructed node can
// never violate the attach preconditions.
func New(name string, opts ...Option) *Controller {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}

	c := &Controller{
		id:        o.id,
		name:      name,
		status:    types.StatusIdle,
		record:    types.NewNodeRecord(o.id, name),
		events:    observe.NewObservable[types.Event](o.logger),
		observers: o.observers,
		redaction: o.redaction,
		logger:    o.logger.With(zap.String("component", "workflow"), zap.String("workflow_id", o.id)),
		now:       o.now,
	}
	if len(o.metadata) > 0 {
		c.record.Metadata = make(map[string]any, len(o.metadata))
		for k, v := range o.metadata {
			c.record.Metadata[k] = v
		}
	}
	if o.parent != nil {
		// Only a duplicate-id collision could make this fail, and ids are
		// generated; surface it loudly rather than return a half-built tree.
		if err := o.parent.AttachChild(c); err != nil {
			c.logger.Error("implicit attach failed", zap.Error(err))
		}
	}
	return c
}

// ID returns the controller's opaque unique identity.
func (c *Controller) ID() string { return c.id }

// Name returns the human-readable name.
func (c *Controller) Name() string { return c.name }

// Status returns the current lifecycle status.
func (c *Controller) Status() types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Parent returns the current parent controller, or nil for a root.
func (c *Controller) Parent() *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parent
}

// Children returns the attached children in attach order.
func (c *Controller) Children() []*Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Controller(nil), c.children...)
}

// Record returns the live node record mirroring this controller. The record
// is owned by the engine; consumers needing a stable view use Snapshot.
func (c *Controller) Record() *types.NodeRecord {
	return c.record
}

// Snapshot returns a deep copy of this controller's record subtree. Every
// node in the copy has its own construction-time redaction policy applied,
// so a descendant's policy holds no matter which ancestor produced the
// snapshot.
func (c *Controller) Snapshot() *types.NodeRecord {
	c.mu.Lock()
	snap := c.record.RedactedNode(c.redaction)
	children := append([]*Controller(nil), c.children...)
	c.mu.Unlock()

	if len(children) > 0 {
		snap.Children = make([]*types.NodeRecord, len(children))
		for i, child := range children {
			snap.Children[i] = child.Snapshot()
		}
	}
	return snap
}

// AttachChild attaches child under c. It fails with a structural error if
// child is already attached to a parent, if the attach would create a cycle
// (child equals c or is an ancestor of c), or if child is already listed
// under c. Both trees are updated in the same critical section and a
// child_attached event is emitted on success.
func (c *Controller) AttachChild(child *Controller) error {
	if child == nil {
		return types.NewStructural("cannot attach nil child").WithNode(c.id)
	}
	if child == c {
		return types.NewError(types.ErrCycleDetected, "cannot attach a node to itself").WithNode(c.id)
	}
	// Attaching an ancestor of c under c would close a loop.
	cyclic, err := c.IsDescendantOf(child)
	if err != nil {
		return err
	}
	if cyclic {
		return types.NewError(types.ErrCycleDetected,
			"cannot attach an ancestor as a child").WithNode(child.id)
	}

	c.mu.Lock()
	for _, existing := range c.children {
		if existing == child {
			c.mu.Unlock()
			return types.NewStructural("node %s is already a child of %s", child.id, c.id)
		}
	}
	child.mu.Lock()
	if child.parent != nil {
		parentID := child.parent.id
		child.mu.Unlock()
		c.mu.Unlock()
		return types.NewStructural("node %s is already attached to parent %s", child.id, parentID)
	}
	// Mirror update: controller link and record link in one critical section.
	child.parent = c
	c.children = append(c.children, child)
	c.record.AppendChild(child.record)
	child.mu.Unlock()
	c.mu.Unlock()

	c.logger.Debug("child attached", zap.String("child_id", child.id))
	return c.EmitEvent(types.Event{
		Type:     types.EventChildAttached,
		ParentID: c.id,
		ChildID:  child.id,
	})
}

// DetachChild severs the link between c and child in both trees. The
// detached child keeps its own subtree and becomes a new root. Fails with a
// structural error if child is not currently a child of c.
func (c *Controller) DetachChild(child *Controller) error {
	if child == nil {
		return types.NewStructural("cannot detach nil child").WithNode(c.id)
	}

	c.mu.Lock()
	idx := -1
	for i, existing := range c.children {
		if existing == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return types.NewStructural("node %s is not a child of %s", child.id, c.id)
	}
	child.mu.Lock()
	child.parent = nil
	c.children = append(c.children[:idx], c.children[idx+1:]...)
	c.record.RemoveChild(child.id)
	child.mu.Unlock()
	c.mu.Unlock()

	c.logger.Debug("child detached", zap.String("child_id", child.id))
	return c.EmitEvent(types.Event{
		Type:     types.EventChildDetached,
		ParentID: c.id,
		ChildID:  child.id,
	})
}

// IsDescendantOf walks the parent chain from c upward and reports whether
// ancestor is encountered; c counts as a descendant of itself. The walk
// maintains a visited set and fails fast with a CYCLE_DETECTED error when a
// node repeats, which can only happen when tree links were mutated directly
// instead of through attach/detach.
func (c *Controller) IsDescendantOf(ancestor *Controller) (bool, error) {
	visited := make(map[string]bool)
	for node := c; node != nil; node = node.Parent() {
		if visited[node.id] {
			return false, types.NewError(types.ErrCycleDetected,
				"circular relationship detected").WithNode(node.id)
		}
		visited[node.id] = true
		if node == ancestor {
			return true, nil
		}
	}
	return false, nil
}

// Root returns the top-most ancestor, or c itself when it has no parent.
// The walk carries the same cycle guard as IsDescendantOf.
func (c *Controller) Root() (*Controller, error) {
	visited := make(map[string]bool)
	node := c
	for {
		if visited[node.id] {
			return nil, types.NewError(types.ErrCycleDetected,
				"circular relationship detected").WithNode(node.id)
		}
		visited[node.id] = true
		parent := node.Parent()
		if parent == nil {
			return node, nil
		}
		node = parent
	}
}

// Ancestors returns the parent chain from c's parent up to the root.
func (c *Controller) Ancestors() ([]*Controller, error) {
	visited := map[string]bool{c.id: true}
	var chain []*Controller
	for node := c.Parent(); node != nil; node = node.Parent() {
		if visited[node.id] {
			return nil, types.NewError(types.ErrCycleDetected,
				"circular relationship detected").WithNode(node.id)
		}
		visited[node.id] = true
		chain = append(chain, node)
	}
	return chain, nil
}

// Observe registers an observer on this controller. The observer receives
// everything emitted by this controller and its current and future
// descendants. The returned function removes the observer.
func (c *Controller) Observe(o observe.Observer) func() {
	c.obsMu.Lock()
	c.observers = append(c.observers, o)
	c.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.obsMu.Lock()
			defer c.obsMu.Unlock()
			for i, existing := range c.observers {
				if existing == o {
					c.observers = append(c.observers[:i], c.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Events exposes the raw event stream of this controller's subtree for
// ad-hoc subscribers that do not need the full observer capability set.
func (c *Controller) Events() *observe.Observable[types.Event] {
	return c.events
}

// EmitEvent appends the event to this node's event log and notifies every
// observer registered on this node or any ancestor. Structural events
// additionally deliver the current root record via OnTreeChanged. The only
// failure mode is a cycle detected during the ancestry walk.
func (c *Controller) EmitEvent(ev types.Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = c.now()
	}
	if ev.NodeID == "" {
		ev.NodeID = c.id
	}

	c.mu.Lock()
	c.record.Events = append(c.record.Events, ev)
	c.mu.Unlock()

	chain, err := c.mountChain()
	if err != nil {
		c.logger.Error("event fan-out aborted", zap.Error(err))
		return err
	}

	for _, node := range chain {
		node.events.Publish(ev)
		for _, o := range node.observerSnapshot() {
			o.OnEvent(ev)
		}
	}

	if ev.Structural() {
		root := chain[len(chain)-1]
		snap := root.Snapshot()
		for _, node := range chain {
			for _, o := range node.observerSnapshot() {
				o.OnTreeChanged(snap)
			}
		}
	}
	return nil
}

// EmitCustom emits a custom event with a caller-defined name and payload.
func (c *Controller) EmitCustom(name string, data map[string]any) error {
	return c.EmitEvent(types.Event{Type: types.EventCustom, Name: name, Data: data})
}

// StepStart marks the beginning of a named step inside this unit of work.
func (c *Controller) StepStart(name string) error {
	return c.EmitEvent(types.Event{Type: types.EventStepStart, Name: name})
}

// StepComplete marks the end of a named step.
func (c *Controller) StepComplete(name string) error {
	return c.EmitEvent(types.Event{Type: types.EventStepComplete, Name: name})
}

// Log appends a log entry to the node record, fans it out to observers, and
// mirrors it to the diagnostic logger.
func (c *Controller) Log(level types.LogLevel, msg string) {
	entry := types.LogEntry{
		Timestamp: c.now(),
		NodeID:    c.id,
		Level:     level,
		Message:   msg,
	}

	c.mu.Lock()
	c.record.Logs = append(c.record.Logs, entry)
	c.mu.Unlock()

	chain, err := c.mountChain()
	if err != nil {
		c.logger.Error("log fan-out aborted", zap.Error(err))
		return
	}
	for _, node := range chain {
		for _, o := range node.observerSnapshot() {
			o.OnLog(entry)
		}
	}
	c.logger.Debug(msg, zap.String("level", string(level)))
}

// Start transitions the controller to running. Permitted exactly once, from
// idle.
func (c *Controller) Start() error {
	return c.transition(types.StatusRunning, "")
}

// Complete transitions the controller to the completed terminal status.
func (c *Controller) Complete() error {
	return c.transition(types.StatusCompleted, "")
}

// Fail emits an error event and transitions to the failed terminal status.
func (c *Controller) Fail(cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := c.EmitEvent(types.Event{Type: types.EventError, Error: msg}); err != nil {
		return err
	}
	return c.transition(types.StatusFailed, msg)
}

// Cancel moves the controller to cancelled from idle or running.
// Cancellation is cooperative: already-emitted events stand and running
// children are not force-cancelled.
func (c *Controller) Cancel() error {
	return c.transition(types.StatusCancelled, "")
}

func (c *Controller) transition(to types.Status, errMsg string) error {
	c.mu.Lock()
	from := c.status
	if !types.CanTransition(from, to) {
		c.mu.Unlock()
		return types.NewInvalidTransition(from, to).WithNode(c.id)
	}
	c.status = to
	c.record.Status = to
	c.mu.Unlock()

	parentID := ""
	if p := c.Parent(); p != nil {
		parentID = p.id
	}
	ev := types.Event{
		Type:     types.EventStatusChange,
		Name:     c.name,
		ParentID: parentID,
		From:     from,
		To:       to,
		Error:    errMsg,
	}
	if err := c.EmitEvent(ev); err != nil {
		return err
	}

	chain, err := c.mountChain()
	if err != nil {
		return err
	}
	snap := c.Snapshot()
	for _, node := range chain {
		for _, o := range node.observerSnapshot() {
			o.OnStateSnapshot(snap)
		}
	}
	return nil
}

// mountChain returns c followed by its ancestors up to the root, guarding
// against cycles. Observer fan-out walks this chain so that a child
// attached anywhere is automatically visible to ancestor observers.
func (c *Controller) mountChain() ([]*Controller, error) {
	ancestors, err := c.Ancestors()
	if err != nil {
		return nil, err
	}
	return append([]*Controller{c}, ancestors...), nil
}

func (c *Controller) observerSnapshot() []observe.Observer {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	return append([]observe.Observer(nil), c.observers...)
}
