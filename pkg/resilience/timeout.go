package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CallWithin runs fn with a context that expires after limit. A limit of zero
// or less leaves ctx unchanged. Deadline errors are reported with the name of
// the call.
func CallWithin(ctx context.Context, limit time.Duration, name string, fn func(ctx context.Context) error) error {
	if limit <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: exceeded %v: %w", name, limit, context.DeadlineExceeded)
	}
	return err
}
