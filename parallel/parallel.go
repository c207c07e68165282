package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/runtree/tree"
	"github.com/BaSui01/runtree/types"
)

// Task is a named unit of concurrent work.
type Task interface {
	// Name returns the task name, used for the spawned child controller.
	Name() string
	// Execute runs the task.
	Execute(ctx context.Context, input any) (any, error)
}

// TaskFunc is the function form of a task body.
type TaskFunc func(ctx context.Context, input any) (any, error)

// FuncTask adapts a function to the Task interface.
type FuncTask struct {
	name string
	fn   TaskFunc
}

// NewFuncTask creates a function task.
func NewFuncTask(name string, fn TaskFunc) *FuncTask {
	return &FuncTask{name: name, fn: fn}
}

func (t *FuncTask) Execute(ctx context.Context, input any) (any, error) {
	return t.fn(ctx, input)
}

func (t *FuncTask) Name() string {
	return t.name
}

// Result is the settled outcome of one spawned child, in launch order.
type Result struct {
	Index    int
	TaskName string
	ChildID  string
	Value    any
	Err      error
}

// Option configures a RunAll invocation.
type Option func(*options)

type options struct {
	merge MergeFunc
	limit int
}

// WithMergePolicy enables failure merging with a caller-supplied combiner.
func WithMergePolicy(fn MergeFunc) Option {
	return func(o *options) { o.merge = fn }
}

// WithDefaultMerge enables failure merging with the default combiner, which
// produces an *AggregateError.
func WithDefaultMerge() Option {
	return func(o *options) { o.merge = DefaultMerge }
}

// WithLimit bounds the number of children executing at once. Zero or
// negative means unlimited.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// RunAll spawns one child controller under parent per task and executes all
// tasks concurrently, settling every child regardless of sibling failures.
//
// On full success it returns the results in launch order. When children
// fail and no merge policy is configured, the first failure in launch order
// is returned as-is. With a merge policy, all failures are combined into a
// single error, emitted as one error event on the parent before being
// returned.
func RunAll(ctx context.Context, parent *tree.Controller, taskName string, input any, tasks []Task, opts ...Option) ([]Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	if err := parent.EmitEvent(types.Event{Type: types.EventTaskStart, Name: taskName}); err != nil {
		return nil, err
	}

	results := make([]Result, len(tasks))
	children := make([]*tree.Controller, len(tasks))
	for i, task := range tasks {
		children[i] = tree.New(task.Name(), tree.WithParent(parent))
	}

	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			child := children[i]
			value, err := child.Run(ctx, func(ctx context.Context) (any, error) {
				return task.Execute(ctx, input)
			})
			results[i] = Result{
				Index:    i,
				TaskName: task.Name(),
				ChildID:  child.ID(),
				Value:    value,
				Err:      err,
			}
			return err
		})
	}
	// The group only reports the first error; per-child outcomes are
	// already captured in results.
	_ = g.Wait()

	if err := parent.EmitEvent(types.Event{Type: types.EventTaskComplete, Name: taskName}); err != nil {
		return nil, err
	}

	var failures []Failure
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, Failure{
				ChildID:  r.ChildID,
				TaskName: r.TaskName,
				Err:      r.Err,
				Logs:     childLogs(r.Err),
			})
		}
	}
	if len(failures) == 0 {
		return results, nil
	}

	if o.merge == nil {
		// Lossy default: first failure in launch order, siblings discarded.
		return results, failures[0].Err
	}

	merged := o.merge(taskName, len(tasks), failures)
	if emitErr := parent.EmitEvent(types.Event{
		Type:  types.EventError,
		Name:  taskName,
		Error: merged.Error(),
	}); emitErr != nil {
		return results, emitErr
	}
	return results, merged
}

// childLogs extracts the accumulated logs from an enriched child failure.
func childLogs(err error) []types.LogEntry {
	var enriched *types.EnrichedError
	if ok := asEnriched(err, &enriched); ok {
		return enriched.Logs
	}
	return nil
}
