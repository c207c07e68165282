package parallel

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/BaSui01/runtree/types"
)

// Failure is one failed child, as handed to a merge policy.
type Failure struct {
	ChildID  string
	TaskName string
	Err      error
	Logs     []types.LogEntry
}

// MergeFunc combines the failures of a concurrent run into a single error.
// taskName is the name of the aggregating run, total the number of children
// launched.
type MergeFunc func(taskName string, total int, failures []Failure) error

// AggregateError is the combined failure of a concurrent run. It keeps the
// identity and logs of every failed child, deduplicated by child id.
type AggregateError struct {
	TaskName string
	Total    int
	ChildIDs []string
	Logs     []types.LogEntry

	errs []error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%d of %d concurrent children failed in task '%s'",
		len(e.ChildIDs), e.Total, e.TaskName)
}

// Unwrap exposes the individual child failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.errs
}

// Code identifies aggregate failures in the shared error taxonomy.
func (e *AggregateError) Code() types.ErrorCode {
	return types.ErrAggregate
}

// Combined returns the child failures folded into one multierr value, for
// callers that want a flat error rather than the aggregate wrapper.
func (e *AggregateError) Combined() error {
	return multierr.Combine(e.errs...)
}

// DefaultMerge builds an *AggregateError from the failures. Child ids are
// deduplicated in first-seen order and logs are concatenated in the same
// order.
func DefaultMerge(taskName string, total int, failures []Failure) error {
	agg := &AggregateError{
		TaskName: taskName,
		Total:    total,
	}
	seen := make(map[string]bool, len(failures))
	for _, f := range failures {
		if !seen[f.ChildID] {
			seen[f.ChildID] = true
			agg.ChildIDs = append(agg.ChildIDs, f.ChildID)
			agg.Logs = append(agg.Logs, f.Logs...)
		}
		agg.errs = append(agg.errs, f.Err)
	}
	return agg
}

// IsAggregate reports whether err carries an *AggregateError.
func IsAggregate(err error) bool {
	var agg *AggregateError
	return errors.As(err, &agg)
}

func asEnriched(err error, target **types.EnrichedError) bool {
	return errors.As(err, target)
}
