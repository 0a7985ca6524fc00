package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/avast/retry-go/v4"
)

// isTransient reports whether a failed call is worth repeating.
// Cancellation and deadline errors never are.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// withRetry runs call under the given options, stopping early on permanent errors
// or when ctx is done.
func withRetry[T any](ctx context.Context, opts []retry.Option, call func() (T, error)) (T, error) {
	all := append([]retry.Option{
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	}, opts...)
	return retry.DoWithData(call, all...)
}
