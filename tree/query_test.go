package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/runtree/types"
)

func buildWatchedTree(t *testing.T) (*Controller, *Controller, *Controller, *Index) {
	t.Helper()
	root := New("root", WithID("root"))
	idx, err := Watch(root)
	require.NoError(t, err)

	a := New("a", WithID("a"), WithParent(root))
	b := New("b", WithID("b"), WithParent(a))
	return root, a, b, idx
}

func TestIndex_GetNode(t *testing.T) {
	_, _, _, idx := buildWatchedTree(t)

	node, ok := idx.GetNode("b")
	require.True(t, ok)
	assert.Equal(t, "b", node.Name)

	_, ok = idx.GetNode("missing")
	assert.False(t, ok)
}

func TestIndex_GetChildren(t *testing.T) {
	root, _, _, idx := buildWatchedTree(t)
	New("c", WithID("c"), WithParent(root))

	children := idx.GetChildren("root")
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].ID)
	assert.Equal(t, "c", children[1].ID)
	assert.Empty(t, idx.GetChildren("b"))
}

func TestIndex_GetAncestors(t *testing.T) {
	_, _, _, idx := buildWatchedTree(t)

	chain, err := idx.GetAncestors("b")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "a", chain[0].ID)
	assert.Equal(t, "root", chain[1].ID)

	chain, err = idx.GetAncestors("root")
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestIndex_GetAncestors_CycleGuard(t *testing.T) {
	idx := NewIndex()
	idx.nodes["x"] = types.NewNodeRecord("x", "x")
	idx.nodes["y"] = types.NewNodeRecord("y", "y")
	idx.parents["x"] = "y"
	idx.parents["y"] = "x"

	_, err := idx.GetAncestors("x")
	require.Error(t, err)
	assert.Equal(t, types.ErrCycleDetected, types.GetErrorCode(err))
}

func TestIndex_ReplacesViewOnDetach(t *testing.T) {
	root, a, _, idx := buildWatchedTree(t)

	require.NoError(t, root.DetachChild(a))

	assert.Empty(t, idx.GetChildren("root"))
	_, ok := idx.GetNode("b")
	assert.False(t, ok, "detached subtree must leave the indexed view")
}

func TestIndex_FoldsStatusAndEvents(t *testing.T) {
	_, a, _, idx := buildWatchedTree(t)

	require.NoError(t, a.Start())
	require.NoError(t, a.EmitCustom("ping", nil))
	a.Log(types.LogInfo, "hello")

	node, ok := idx.GetNode("a")
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, node.Status)

	var custom int
	for _, ev := range node.Events {
		if ev.Type == types.EventCustom {
			custom++
		}
	}
	assert.Equal(t, 1, custom)
	require.Len(t, node.Logs, 1)
	assert.Equal(t, "hello", node.Logs[0].Message)
}

func TestIndex_ToSerializable(t *testing.T) {
	_, _, _, idx := buildWatchedTree(t)

	raw, err := idx.ToSerializable()
	require.NoError(t, err)

	var decoded types.NodeRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "root", decoded.ID)
	require.Len(t, decoded.Children, 1)
	require.Len(t, decoded.Children[0].Children, 1)
	assert.Equal(t, "b", decoded.Children[0].Children[0].ID)
}
