package tree

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/BaSui01/runtree/types"
)

// recordShape renders the record tree topology as a string for comparison.
func recordShape(rec *types.NodeRecord) string {
	s := rec.ID
	if len(rec.Children) == 0 {
		return s
	}
	s += "("
	for i, c := range rec.Children {
		if i > 0 {
			s += " "
		}
		s += recordShape(c)
	}
	return s + ")"
}

// controllerShape renders the controller tree topology the same way.
func controllerShape(c *Controller) string {
	s := c.ID()
	children := c.Children()
	if len(children) == 0 {
		return s
	}
	s += "("
	for i, child := range children {
		if i > 0 {
			s += " "
		}
		s += controllerShape(child)
	}
	return s + ")"
}

// TestMirrorInvariant_RandomMutations drives a random sequence of attach and
// detach operations over a fixed pool of controllers and checks after every
// operation that each resulting tree's record topology is identical to its
// controller topology, whether the operation succeeded or was rejected.
func TestMirrorInvariant_RandomMutations(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(rt, "poolSize")
		pool := make([]*Controller, n)
		for i := range pool {
			pool[i] = New(fmt.Sprintf("node-%d", i), WithID(fmt.Sprintf("id-%d", i)))
		}

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for s := 0; s < steps; s++ {
			pi := rapid.IntRange(0, n-1).Draw(rt, "parent")
			ci := rapid.IntRange(0, n-1).Draw(rt, "child")
			parent, child := pool[pi], pool[ci]

			if rapid.Bool().Draw(rt, "attach") {
				err := parent.AttachChild(child)
				if err != nil && !types.IsStructural(err) {
					rt.Fatalf("unexpected error kind: %v", err)
				}
			} else {
				err := parent.DetachChild(child)
				if err != nil && !types.IsStructural(err) {
					rt.Fatalf("unexpected error kind: %v", err)
				}
			}

			// Every node's tree must still mirror its record tree.
			for _, c := range pool {
				root, err := c.Root()
				if err != nil {
					rt.Fatalf("cycle escaped the attach guard: %v", err)
				}
				got := recordShape(root.Record())
				want := controllerShape(root)
				if got != want {
					rt.Fatalf("mirror broken after step %d: record %s, controllers %s", s, got, want)
				}
			}

			// Bidirectional link invariant: child in parent.children iff
			// child.parent == parent.
			for _, p := range pool {
				for _, c := range p.Children() {
					if c.Parent() != p {
						rt.Fatalf("bidirectional link broken: %s listed under %s", c.ID(), p.ID())
					}
				}
			}
		}
	})
}
