package tree

import (
	"context"

	"github.com/BaSui01/runtree/types"
)

// RunFunc is the body of a unit of work driven through Run.
type RunFunc func(ctx context.Context) (any, error)

// Unit is the capability contract a value must satisfy to be adopted as a
// child unit of work. The check is an explicit interface assertion, not
// structural field sniffing, so unrelated values can never be attached by
// accident.
type Unit interface {
	// ID returns the unit's opaque identity.
	ID() string
	// Controller returns the controller occupying the unit's tree slot.
	Controller() *Controller
	// Execute runs the unit's work.
	Execute(ctx context.Context, input any) (any, error)
}

// Adopt attaches the controller of v under c. It fails with a
// NOT_CHILD_UNIT error when v does not implement the Unit contract, and
// with the usual structural errors when the attach preconditions are
// violated.
func (c *Controller) Adopt(v any) error {
	u, ok := v.(Unit)
	if !ok {
		return types.NewError(types.ErrNotChildUnit,
			"value does not satisfy the child unit contract").WithNode(c.id)
	}
	return c.AttachChild(u.Controller())
}

// Run drives one execution of the controller through its lifecycle:
// idle -> running, then completed, failed, or cancelled depending on the
// outcome. On failure the returned error is a *types.EnrichedError carrying
// the workflow id, a redacted state snapshot, and the accumulated logs, so
// the diagnostic payload travels in the signature instead of an implicit
// exception channel.
func (c *Controller) Run(ctx context.Context, fn RunFunc) (any, error) {
	if err := c.Start(); err != nil {
		return nil, err
	}

	out, err := fn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Cooperative cancellation observed by the unit itself.
			if cancelErr := c.Cancel(); cancelErr != nil {
				c.logger.Warn("cancel after context error failed")
			}
		} else if failErr := c.Fail(err); failErr != nil {
			return nil, failErr
		}
		return nil, c.enrich(err)
	}

	if err := c.Complete(); err != nil {
		return nil, err
	}
	return out, nil
}

// enrich wraps err with the controller's diagnostic payload.
func (c *Controller) enrich(err error) *types.EnrichedError {
	c.mu.Lock()
	logs := append([]types.LogEntry(nil), c.record.Logs...)
	c.mu.Unlock()

	return &types.EnrichedError{
		WorkflowID: c.id,
		Name:       c.name,
		Snapshot:   c.Snapshot(),
		Logs:       logs,
		Err:        err,
	}
}
