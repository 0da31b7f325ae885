package enrich

import (
	"context"
	"strings"
)

// Result is the outcome of one fetch attempt: either a value or a reason it
// failed. Fallback chains fold over these instead of scattering error
// handling at each call site.
type Result[T any] struct {
	value  T
	ok     bool
	reason string
}

// Ok wraps a successful fetch.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Failed wraps a fetch failure with its reason.
func Failed[T any](reason string) Result[T] {
	return Result[T]{reason: reason}
}

// Value returns the fetched value and whether it is present.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

// Reason returns the failure reason, or "" for successes.
func (r Result[T]) Reason() string {
	return r.reason
}

// Fetcher is one typed source in an ordered fallback chain.
type Fetcher[T any] func(ctx context.Context) Result[T]

// FirstOK tries fetchers in order and returns the first success. When every
// fetcher fails it returns a failure whose reason joins all attempts, so the
// resulting risk note names the whole chain.
func FirstOK[T any](ctx context.Context, fetchers ...Fetcher[T]) Result[T] {
	reasons := make([]string, 0, len(fetchers))
	for _, fetch := range fetchers {
		if err := ctx.Err(); err != nil {
			reasons = append(reasons, err.Error())
			break
		}
		r := fetch(ctx)
		if r.ok {
			return r
		}
		reasons = append(reasons, r.reason)
	}
	return Failed[T](strings.Join(reasons, "; "))
}
