package completion

import (
	"context"
	"errors"

	"github.com/sells-group/math-mentor/internal/resilience"
)

type breakerCompleter struct {
	next Completer
	cb   *resilience.CircuitBreaker
}

// WithCircuitBreaker wraps next so that, after repeated transient upstream
// failures, requests fail fast with an UpstreamError until the breaker's
// reset timeout elapses.
func WithCircuitBreaker(next Completer, cb *resilience.CircuitBreaker) Completer {
	return &breakerCompleter{next: next, cb: cb}
}

func (b *breakerCompleter) Complete(ctx context.Context, req Request) (string, error) {
	text, err := resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (string, error) {
		return b.next.Complete(ctx, req)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "", transportError(err)
	}
	return text, err
}
