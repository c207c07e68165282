package types

// NodeRecord is the serializable shadow of a live controller. Its topology
// mirrors the controller tree at all times: same identities, same
// parent/child relationships, same ordering.
type NodeRecord struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Children []*NodeRecord  `json:"children,omitempty"`
	Logs     []LogEntry     `json:"logs,omitempty"`
	Events   []Event        `json:"events,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewNodeRecord creates a record for a freshly constructed controller.
func NewNodeRecord(id, name string) *NodeRecord {
	return &NodeRecord{
		ID:     id,
		Name:   name,
		Status: StatusIdle,
	}
}

// AppendChild appends a child record, preserving attach order.
func (n *NodeRecord) AppendChild(child *NodeRecord) {
	n.Children = append(n.Children, child)
}

// RemoveChild removes the child record with the given id. It reports
// whether a record was removed.
func (n *NodeRecord) RemoveChild(id string) bool {
	for i, c := range n.Children {
		if c.ID == id {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Child returns the direct child record with the given id, if present.
func (n *NodeRecord) Child(id string) (*NodeRecord, bool) {
	for _, c := range n.Children {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the record subtree. Observers receive clones
// so that a consumer can never mutate the authoritative tree.
func (n *NodeRecord) Clone() *NodeRecord {
	if n == nil {
		return nil
	}
	out := &NodeRecord{
		ID:     n.ID,
		Name:   n.Name,
		Status: n.Status,
	}
	if len(n.Children) > 0 {
		out.Children = make([]*NodeRecord, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	if len(n.Logs) > 0 {
		out.Logs = append([]LogEntry(nil), n.Logs...)
	}
	if len(n.Events) > 0 {
		out.Events = append([]Event(nil), n.Events...)
	}
	if len(n.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// FieldPolicy controls how a metadata field is exposed in serialized
// snapshots. The policy table is passed at construction; there is no global
// per-type registry.
type FieldPolicy struct {
	// Hidden drops the field from snapshots entirely.
	Hidden bool `json:"hidden" yaml:"hidden"`
	// Redact replaces the field value with RedactedValue.
	Redact bool `json:"redact" yaml:"redact"`
}

// RedactedValue is substituted for metadata values whose policy sets Redact.
const RedactedValue = "[REDACTED]"

// Redacted returns a deep copy of the record subtree with one metadata
// field policy applied at every node. A nil policy returns a plain clone.
// When descendants carry their own policies, assemble the snapshot with
// RedactedNode per node instead.
func (n *NodeRecord) Redacted(policy map[string]FieldPolicy) *NodeRecord {
	out := n.Clone()
	if out == nil || len(policy) == 0 {
		return out
	}
	out.applyPolicy(policy)
	return out
}

// RedactedNode returns a deep copy of this node alone, children excluded,
// with the field policy applied. Callers assembling a snapshot across nodes
// with differing policies clone each node under its own policy and relink
// the children themselves.
func (n *NodeRecord) RedactedNode(policy map[string]FieldPolicy) *NodeRecord {
	if n == nil {
		return nil
	}
	out := &NodeRecord{
		ID:     n.ID,
		Name:   n.Name,
		Status: n.Status,
	}
	if len(n.Logs) > 0 {
		out.Logs = append([]LogEntry(nil), n.Logs...)
	}
	if len(n.Events) > 0 {
		out.Events = append([]Event(nil), n.Events...)
	}
	if len(n.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	if len(policy) > 0 {
		out.applyPolicy(policy)
	}
	return out
}

func (n *NodeRecord) applyPolicy(policy map[string]FieldPolicy) {
	for field, p := range policy {
		if _, ok := n.Metadata[field]; !ok {
			continue
		}
		switch {
		case p.Hidden:
			delete(n.Metadata, field)
		case p.Redact:
			n.Metadata[field] = RedactedValue
		}
	}
	for _, c := range n.Children {
		c.applyPolicy(policy)
	}
}
