package tree

import (
	"encoding/json"
	"sync"

	"github.com/BaSui01/runtree/types"
)

// Index is the flattened query surface over the assembled event tree. It
// implements observe.Observer: on every structural change it replaces its
// cached view with the delivered root record instead of applying deltas,
// and it folds status changes, events, and logs into the cached nodes in
// between.
type Index struct {
	mu      sync.RWMutex
	root    *types.NodeRecord
	nodes   map[string]*types.NodeRecord
	parents map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		nodes:   make(map[string]*types.NodeRecord),
		parents: make(map[string]string),
	}
}

// Watch registers a new index as an observer on c and seeds it with the
// current snapshot of c's root.
func Watch(c *Controller) (*Index, error) {
	root, err := c.Root()
	if err != nil {
		return nil, err
	}
	idx := NewIndex()
	idx.OnTreeChanged(root.Snapshot())
	c.Observe(idx)
	return idx, nil
}

// OnTreeChanged replaces the cached tree with the delivered root record.
func (ix *Index) OnTreeChanged(root *types.NodeRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.root = root
	ix.nodes = make(map[string]*types.NodeRecord)
	ix.parents = make(map[string]string)
	ix.index(root, "")
}

func (ix *Index) index(node *types.NodeRecord, parentID string) {
	if node == nil {
		return
	}
	ix.nodes[node.ID] = node
	if parentID != "" {
		ix.parents[node.ID] = parentID
	}
	for _, child := range node.Children {
		ix.index(child, node.ID)
	}
}

// OnStateSnapshot folds a status change into the cached node.
func (ix *Index) OnStateSnapshot(node *types.NodeRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if cached, ok := ix.nodes[node.ID]; ok {
		cached.Status = node.Status
	}
}

// OnEvent appends the event to the cached originating node.
func (ix *Index) OnEvent(ev types.Event) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if cached, ok := ix.nodes[ev.NodeID]; ok {
		cached.Events = append(cached.Events, ev)
	}
}

// OnLog appends the entry to the cached originating node.
func (ix *Index) OnLog(entry types.LogEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if cached, ok := ix.nodes[entry.NodeID]; ok {
		cached.Logs = append(cached.Logs, entry)
	}
}

// GetNode returns the cached record with the given id.
func (ix *Index) GetNode(id string) (*types.NodeRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	node, ok := ix.nodes[id]
	return node, ok
}

// GetChildren returns the cached children of the node with the given id, in
// attach order.
func (ix *Index) GetChildren(id string) []*types.NodeRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	node, ok := ix.nodes[id]
	if !ok {
		return nil
	}
	return append([]*types.NodeRecord(nil), node.Children...)
}

// GetAncestors returns the chain of ancestor records from the node's parent
// up to the root. The walk applies the same visited-set cycle guard as the
// live tree.
func (ix *Index) GetAncestors(id string) ([]*types.NodeRecord, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	visited := map[string]bool{id: true}
	var chain []*types.NodeRecord
	for {
		parentID, ok := ix.parents[id]
		if !ok {
			return chain, nil
		}
		if visited[parentID] {
			return nil, types.NewError(types.ErrCycleDetected,
				"circular relationship detected").WithNode(parentID)
		}
		visited[parentID] = true
		parent, ok := ix.nodes[parentID]
		if !ok {
			return chain, nil
		}
		chain = append(chain, parent)
		id = parentID
	}
}

// Root returns the cached root record.
func (ix *Index) Root() *types.NodeRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.root
}

// ToSerializable renders the cached tree as JSON.
func (ix *Index) ToSerializable() ([]byte, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return json.Marshal(ix.root)
}
