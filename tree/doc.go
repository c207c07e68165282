// Package tree implements the workflow tree controller: the live object
// graph of nested units of work and the serializable node-record tree that
// mirrors it.
//
// Two invariants govern every mutation:
//
//   - Acyclicity: no controller is ever its own ancestor. Attach operations
//     reject cycles up front, and every ancestry walk carries a visited-set
//     guard that fails fast on cycles introduced by direct mutation.
//   - Mirror consistency: the node-record tree always has the same
//     topology, identities, and ordering as the controller tree. Attach and
//     detach update both trees in the same critical section, so no observer
//     read between operations can see them out of sync.
//
// Observers registered at any ancestor receive every event emitted in the
// subtree; attaching a child anywhere mounts it (and its existing subtree)
// into the observed hierarchy with no re-registration.
package tree
