package server

import "fmt"

// ctxRequest is a unit of work to run on the context's owning goroutine.
type ctxRequest struct {
	fn   func() interface{}
	done chan ctxResult
}

type ctxResult struct {
	value interface{}
	err   error
}

// VMWorker serializes all access to a single vm.Context through one
// goroutine — Ember, like the teacher's VM, is single-threaded and must
// never be entered concurrently, so every LSP/RPC handler routes its
// context access through Do rather than touching the context directly.
type VMWorker struct {
	requests chan ctxRequest
	quit     chan struct{}
}

// NewVMWorker starts the serializing goroutine.
func NewVMWorker() *VMWorker {
	w := &VMWorker{
		requests: make(chan ctxRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *VMWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

func (w *VMWorker) execute(fn func() interface{}) ctxResult {
	var result ctxResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn()
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes, recovering any panic fn raises into an error.
func (w *VMWorker) Do(fn func() interface{}) (interface{}, error) {
	req := ctxRequest{fn: fn, done: make(chan ctxResult, 1)}
	w.requests <- req
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine.
func (w *VMWorker) Stop() {
	close(w.quit)
}
