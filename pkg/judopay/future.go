package judopay

import (
	"context"

	"github.com/judopay/judopay-go/pkg/httpclient"
)

// Future is the pending result of an asynchronous request.
type Future struct {
	done chan struct{}
	resp httpclient.Response
	err  error
}

func runAsync(fn func() (httpclient.Response, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the request completes.
func (f *Future) Wait() (httpclient.Response, error) {
	<-f.done
	return f.resp, f.err
}

// WaitContext is like Wait but gives up when ctx ends. The request itself
// keeps running unless it was started with the same ctx.
func (f *Future) WaitContext(ctx context.Context) (httpclient.Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
