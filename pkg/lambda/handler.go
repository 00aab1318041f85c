package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lambda-events/pkg/events"
)

var (
	// ErrPending is returned by a handler that completes through its callback
	// or the legacy Context methods instead of its return value.
	ErrPending = errors.New("lambda: completion deferred to callback")

	// ErrTimeout is the outcome of an invocation that ran past its deadline.
	ErrTimeout = errors.New("task timed out")

	// ErrHandlerPanic wraps the value of a handler panic.
	ErrHandlerPanic = errors.New("lambda: handler panicked")

	// ErrResultType is returned when a legacy Context method completes an
	// invocation with a result the handler's result type cannot hold.
	ErrResultType = errors.New("lambda: result has the wrong type")
)

// Callback reports the outcome of an invocation. A non-nil err marks the
// invocation as failed and result is ignored.
type Callback[R any] func(err error, result R)

// Handler is the function invoked for each event. It completes the invocation
// by returning, by calling callback, or through the legacy Context methods;
// the first of these wins. Returning ErrPending leaves completion to the
// other two; if neither fires, the invocation times out unless work started
// with Context.Go was registered and has finished.
type Handler[E, R any] func(ctx context.Context, event E, lc *Context, callback Callback[R]) (R, error)

// Handler shapes for the event sources with a documented result.
type (
	AnyHandler              = Handler[json.RawMessage, any]
	ProxyHandler            = Handler[events.APIGatewayEvent, events.ProxyResult]
	CustomAuthorizerHandler = Handler[events.CustomAuthorizerEvent, events.AuthResponse]

	AnyCallback              = Callback[any]
	ProxyCallback            = Callback[events.ProxyResult]
	CustomAuthorizerCallback = Callback[events.AuthResponse]
)

// CompletionSource records which path completed an invocation.
type CompletionSource string

const (
	CompletedByReturn   CompletionSource = "return"
	CompletedByCallback CompletionSource = "callback"
	CompletedByContext  CompletionSource = "context"
	CompletedByDrain    CompletionSource = "drain"
	CompletedByTimeout  CompletionSource = "timeout"
	CompletedByPanic    CompletionSource = "panic"
)

// Outcome is the result of one invocation as seen by the caller.
type Outcome[R any] struct {
	Result   R
	Err      error
	Source   CompletionSource
	Duration time.Duration
}

// Report is the type-erased view of an Outcome handed to observers.
type Report struct {
	RequestID    string
	FunctionName string
	Source       CompletionSource
	Err          error
	Result       any
	Duration     time.Duration
	Remaining    time.Duration
}

// Observer is notified once per invocation after it completes.
type Observer func(lc *Context, report Report)

type invokeOptions struct {
	observers []Observer
}

// InvokeOption configures Invoke.
type InvokeOption func(*invokeOptions)

// WithObserver registers an observer for the invocation.
func WithObserver(o Observer) InvokeOption {
	return func(opts *invokeOptions) {
		opts.observers = append(opts.observers, o)
	}
}

type completion struct {
	source CompletionSource
	result any
	err    error
}

type invocation struct {
	once    sync.Once
	done    chan struct{}
	result  completion
	work    sync.WaitGroup
	tracked atomic.Bool
}

func newInvocation() *invocation {
	return &invocation{done: make(chan struct{})}
}

// complete records the first completion and reports whether it was accepted.
func (inv *invocation) complete(source CompletionSource, result any, err error) bool {
	accepted := false
	inv.once.Do(func() {
		inv.result = completion{source: source, result: result, err: err}
		accepted = true
		close(inv.done)
	})
	return accepted
}

// Invoke runs h for one event and returns the first completion. The context
// deadline is the earlier of ctx's and lc.Deadline.
func Invoke[E, R any](ctx context.Context, h Handler[E, R], event E, lc *Context, opts ...InvokeOption) Outcome[R] {
	var options invokeOptions
	for _, opt := range opts {
		opt(&options)
	}

	if lc == nil {
		lc = &Context{}
	}

	start := time.Now()
	if !lc.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, lc.Deadline)
		defer cancel()
	} else if d, ok := ctx.Deadline(); ok {
		lc.Deadline = d
	}

	inv := newInvocation()
	lc.attach(inv)

	callback := func(err error, result R) {
		inv.complete(CompletedByCallback, result, err)
	}

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		defer func() {
			if r := recover(); r != nil {
				inv.complete(CompletedByPanic, nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
			}
		}()

		result, err := h(ctx, event, lc, callback)
		if errors.Is(err, ErrPending) {
			// Untracked callers may still complete; only work started with
			// lc.Go can prove the loop is empty.
			if inv.tracked.Load() {
				inv.work.Wait()
				inv.complete(CompletedByDrain, nil, nil)
			}
			return
		}
		inv.complete(CompletedByReturn, result, err)
	}()

	select {
	case <-inv.done:
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %.2f seconds", ErrTimeout, time.Since(start).Seconds())
		}
		inv.complete(CompletedByTimeout, nil, err)
	}

	if lc.CallbackWaitsForEmptyEventLoop && inv.result.source != CompletedByTimeout {
		waitForEmptyLoop(ctx, handlerDone, &inv.work)
	}

	out := Outcome[R]{
		Err:      inv.result.err,
		Source:   inv.result.source,
		Duration: time.Since(start),
	}
	if out.Err == nil {
		out.Result, out.Err = resultAs[R](inv.result.result)
	}

	report := Report{
		RequestID:    lc.AwsRequestID,
		FunctionName: lc.FunctionName,
		Source:       out.Source,
		Err:          out.Err,
		Result:       out.Result,
		Duration:     out.Duration,
		Remaining:    lc.RemainingTime(),
	}
	for _, o := range options.observers {
		o(lc, report)
	}

	return out
}

func waitForEmptyLoop(ctx context.Context, handlerDone <-chan struct{}, work *sync.WaitGroup) {
	drained := make(chan struct{})
	go func() {
		<-handlerDone
		work.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
	}
}

func resultAs[R any](v any) (R, error) {
	var zero R
	if v == nil {
		return zero, nil
	}
	r, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrResultType, v, zero)
	}
	return r, nil
}
