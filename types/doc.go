// Package types defines the shared data model of the runtree engine:
// lifecycle statuses, structured errors, workflow events, log entries,
// and the serializable node record that shadows every live controller.
//
// The package has no dependencies on the rest of the module so that every
// other package (tree, observe, parallel, cache) can share these types
// without import cycles.
package types
