package scene

import "context"

// Task is the pending result of one source call. The call runs on its own
// goroutine so the awaiting side can stop waiting on cancellation or a
// deadline even when the call itself does not return.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn(ctx) and returns its Task.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.val, t.err = fn(ctx)
	}()
	return t
}

// Wait blocks until the call returns or ctx is done, whichever is first.
// On ctx expiry it returns ctx.Err(); the call's eventual result is dropped.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the call has returned.
func (t *Task[T]) Done() <-chan struct{} { return t.done }
