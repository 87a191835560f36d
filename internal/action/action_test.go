package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testLifecycle(fetch func(ctx context.Context) (any, error), propagate bool) Lifecycle {
	return Lifecycle{
		Request:   Action{Type: "REQUEST"},
		Fetch:     fetch,
		Success:   func(payload any) Action { return Action{Type: "SUCCESS", Payload: payload} },
		Failure:   func(err error) Action { return Action{Type: "FAILURE", Payload: err} },
		Propagate: propagate,
	}
}

func TestRun_DispatchesRequestBeforeFetchCompletes(t *testing.T) {
	defer goleak.VerifyNone(t)

	var rec Recorder
	release := make(chan struct{})
	task := Run(context.Background(), &rec, testLifecycle(func(context.Context) (any, error) {
		<-release
		return "payload", nil
	}, false))

	assert.Equal(t, []Type{"REQUEST"}, rec.Types())

	close(release)
	payload, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "payload", payload)
	assert.Equal(t, []Type{"REQUEST", "SUCCESS"}, rec.Types())
	assert.Equal(t, "payload", rec.Actions()[1].Payload)
}

func TestRun_FailureIsSwallowedByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)

	var rec Recorder
	boom := errors.New("boom")
	task := Run(context.Background(), &rec, testLifecycle(func(context.Context) (any, error) {
		return nil, boom
	}, false))

	payload, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, []Type{"REQUEST", "FAILURE"}, rec.Types())
	assert.ErrorIs(t, rec.Actions()[1].Payload.(error), boom)
}

func TestRun_FailurePropagatesWhenRequested(t *testing.T) {
	defer goleak.VerifyNone(t)

	var rec Recorder
	boom := errors.New("boom")
	task := Run(context.Background(), &rec, testLifecycle(func(context.Context) (any, error) {
		return nil, boom
	}, true))

	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Type{"REQUEST", "FAILURE"}, rec.Types())
}

func TestTask_WaitHonoursContext(t *testing.T) {
	var rec Recorder
	release := make(chan struct{})
	task := Run(context.Background(), &rec, testLifecycle(func(context.Context) (any, error) {
		<-release
		return 1, nil
	}, false))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned fetch still dispatches its terminal action.
	close(release)
	<-task.Done()
	assert.Equal(t, []Type{"REQUEST", "SUCCESS"}, rec.Types())
}
