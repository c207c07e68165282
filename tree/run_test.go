package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/runtree/types"
)

func TestRun_Success(t *testing.T) {
	c := New("unit")

	out, err := c.Run(context.Background(), func(ctx context.Context) (any, error) {
		assert.Equal(t, types.StatusRunning, c.Status())
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, types.StatusCompleted, c.Status())
}

func TestRun_FailureReturnsEnrichedError(t *testing.T) {
	c := New("summarize", WithMetadata(map[string]any{"api_key": "secret"}),
		WithRedaction(map[string]types.FieldPolicy{"api_key": {Redact: true}}))

	cause := errors.New("upstream exploded")
	_, err := c.Run(context.Background(), func(ctx context.Context) (any, error) {
		c.Log(types.LogError, "calling upstream")
		return nil, cause
	})

	require.Error(t, err)
	assert.Equal(t, types.StatusFailed, c.Status())

	var enriched *types.EnrichedError
	require.ErrorAs(t, err, &enriched)
	assert.Equal(t, c.ID(), enriched.WorkflowID)
	assert.Equal(t, "summarize", enriched.Name)
	require.ErrorIs(t, err, cause)

	// The snapshot travels with the error, redacted.
	require.NotNil(t, enriched.Snapshot)
	assert.Equal(t, types.StatusFailed, enriched.Snapshot.Status)
	assert.Equal(t, types.RedactedValue, enriched.Snapshot.Metadata["api_key"])

	require.Len(t, enriched.Logs, 1)
	assert.Equal(t, "calling upstream", enriched.Logs[0].Message)
}

func TestRun_ContextCancellation(t *testing.T) {
	c := New("unit")
	ctx, cancel := context.WithCancel(context.Background())

	_, err := c.Run(ctx, func(ctx context.Context) (any, error) {
		cancel()
		return nil, ctx.Err()
	})

	require.Error(t, err)
	assert.Equal(t, types.StatusCancelled, c.Status())
}

func TestRun_TerminalControllerRejected(t *testing.T) {
	c := New("unit")
	require.NoError(t, c.Cancel())

	_, err := c.Run(context.Background(), func(ctx context.Context) (any, error) {
		t.Fatal("body must not run")
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTransition, types.GetErrorCode(err))
}

// fakeUnit satisfies the Unit capability contract.
type fakeUnit struct {
	c *Controller
}

func (u *fakeUnit) ID() string              { return u.c.ID() }
func (u *fakeUnit) Controller() *Controller { return u.c }
func (u *fakeUnit) Execute(ctx context.Context, input any) (any, error) {
	return input, nil
}

func TestAdopt(t *testing.T) {
	parent := New("parent")
	unit := &fakeUnit{c: New("child")}

	require.NoError(t, parent.Adopt(unit))
	require.Len(t, parent.Children(), 1)
	assert.Same(t, unit.c, parent.Children()[0])
}

func TestAdopt_RejectsNonUnits(t *testing.T) {
	parent := New("parent")

	// A value with an id field but no capability contract is not a child
	// unit; structural field sniffing is exactly what Adopt refuses to do.
	err := parent.Adopt(struct{ ID string }{ID: "impostor"})
	require.Error(t, err)
	assert.Equal(t, types.ErrNotChildUnit, types.GetErrorCode(err))
	assert.Empty(t, parent.Children())
}
