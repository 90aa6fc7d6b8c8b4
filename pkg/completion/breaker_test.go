package completion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/math-mentor/internal/resilience"
)

// stubCompleter avoids an import cycle with the mocks package.
type stubCompleter struct {
	mock.Mock
}

func (s *stubCompleter) Complete(ctx context.Context, req Request) (string, error) {
	args := s.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func TestWithCircuitBreaker_OpensOnTransientFailures(t *testing.T) {
	next := &stubCompleter{}
	next.On("Complete", mock.Anything, mock.Anything).Return("", statusError(503, []byte("down"))).Times(2)

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	c := WithCircuitBreaker(next, cb)

	for i := 0; i < 2; i++ {
		_, err := c.Complete(context.Background(), Request{Prompt: "2+2"})
		require.Error(t, err)
	}
	assert.Equal(t, resilience.CircuitOpen, cb.State())

	// Rejected without reaching upstream, still an UpstreamError.
	_, err := c.Complete(context.Background(), Request{Prompt: "2+2"})
	require.Error(t, err)
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	next.AssertNumberOfCalls(t, "Complete", 2)
}

func TestWithCircuitBreaker_PermanentFailuresDoNotTrip(t *testing.T) {
	next := &stubCompleter{}
	next.On("Complete", mock.Anything, mock.Anything).Return("", statusError(400, []byte("bad prompt")))

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	c := WithCircuitBreaker(next, cb)

	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), Request{Prompt: "2+2"})
		require.Error(t, err)
	}
	assert.Equal(t, resilience.CircuitClosed, cb.State())
	next.AssertNumberOfCalls(t, "Complete", 3)
}

func TestWithCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	next := &stubCompleter{}
	next.On("Complete", mock.Anything, Request{Prompt: "2+2"}).Return("4", nil)

	c := WithCircuitBreaker(next, resilience.NewCircuitBreaker(resilience.BreakerConfig{}))
	text, err := c.Complete(context.Background(), Request{Prompt: "2+2"})
	require.NoError(t, err)
	assert.Equal(t, "4", text)
}
