// Package runtree provides a top-level convenience entry point for creating
// tracked units of work with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/runtree"
//
//	root := runtree.New("pipeline")
//	child := runtree.New("summarize", runtree.WithParent(root))
//	out, err := child.Run(ctx, func(ctx context.Context) (any, error) { ... })
//
// This is a thin wrapper around [tree.New]; both produce identical results.
// Use this package when you prefer the shorter import path.
package runtree

import (
	"github.com/BaSui01/runtree/tree"
)

// Controller is the live unit of work. See [tree.Controller].
type Controller = tree.Controller

// Option configures the controller created by [New].
type Option = tree.Option

// New creates a root controller, or a child when [WithParent] is given.
func New(name string, opts ...Option) *Controller {
	return tree.New(name, opts...)
}

// Re-export construction options so callers never need to import tree/.

// WithParent attaches the new controller under an existing one.
var WithParent = tree.WithParent

// WithID overrides the generated identity.
var WithID = tree.WithID

// WithLogger sets a custom zap logger.
var WithLogger = tree.WithLogger

// WithObserver registers observers at construction.
var WithObserver = tree.WithObserver

// WithMetadata seeds the node record's metadata.
var WithMetadata = tree.WithMetadata

// WithRedaction sets the per-field snapshot policy table.
var WithRedaction = tree.WithRedaction
