package budget

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted reports that the request's global time budget ran out before
// an operation could start.
var ErrExhausted = errors.New("budget: exhausted")

// Budget is a single shared deadline for one request. Every network
// suspension point in the pipeline derives its context from the budget and
// checks Remaining before blocking, so total elapsed time stays bounded.
type Budget struct {
	deadline time.Time
}

// New starts a budget of the given total duration, measured from now.
func New(total time.Duration) *Budget {
	return &Budget{deadline: time.Now().Add(total)}
}

// Remaining returns the time left, never negative.
func (b *Budget) Remaining() time.Duration {
	if b == nil {
		return 0
	}
	d := time.Until(b.deadline)
	if d < 0 {
		return 0
	}
	return d
}

// Exceeded reports whether the budget has run out.
func (b *Budget) Exceeded() bool {
	return b.Remaining() <= 0
}

// Context returns a child of parent whose deadline is the earlier of the
// parent's deadline and the budget's.
func (b *Budget) Context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithDeadline(parent, b.deadline)
}
