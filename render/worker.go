package render

import (
	"errors"
	"time"
)

// progressInterval is the minimum time between progress messages.
const progressInterval = 500 * time.Millisecond

var (
	// ErrNoActiveRender is reported for a cancel with nothing running.
	ErrNoActiveRender = errors.New("no active render to cancel")
	// ErrRenderActive is reported for a start while a render is running.
	ErrRenderActive = errors.New("a render is already running")
)

// Request is sent to a Worker.
type Request interface {
	isRequest()
}

// StartRequest begins a render.
type StartRequest struct {
	Options Options
}

// CancelRequest stops the running render, keeping what was written.
type CancelRequest struct{}

// TerminateRequest stops the worker.
type TerminateRequest struct{}

func (StartRequest) isRequest()     {}
func (CancelRequest) isRequest()    {}
func (TerminateRequest) isRequest() {}

// Message is emitted by a Worker.
type Message interface {
	isMessage()
}

// StartingMessage is sent when a render request is accepted.
type StartingMessage struct{}

// ProgressMessage is sent at most every half second during a render.
type ProgressMessage struct {
	Progress Progress
}

// CompleteMessage is sent when the stop condition is reached and the
// output is finalized.
type CompleteMessage struct {
	Progress Progress
}

// CancelledMessage is sent after a cancelled render is finalized.
type CancelledMessage struct{}

// ErrorMessage reports a failed request or render.
type ErrorMessage struct {
	Err error
}

func (StartingMessage) isMessage()  {}
func (ProgressMessage) isMessage()  {}
func (CompleteMessage) isMessage()  {}
func (CancelledMessage) isMessage() {}
func (ErrorMessage) isMessage()     {}

// Worker renders on its own goroutine, one render at a time. Messages are
// delivered by calling notify on the worker goroutine.
type Worker struct {
	requests chan Request
	done     chan struct{}
	notify   func(Message)
}

// StartWorker starts a worker goroutine.
func StartWorker(notify func(Message)) *Worker {
	w := &Worker{
		requests: make(chan Request, 4),
		done:     make(chan struct{}),
		notify:   notify,
	}
	go w.loop()
	return w
}

// Send queues a request.
func (w *Worker) Send(req Request) {
	select {
	case w.requests <- req:
	case <-w.done:
	}
}

// Terminate stops the worker and waits for it to exit. A running render
// is finalized first.
func (w *Worker) Terminate() {
	w.Send(TerminateRequest{})
	<-w.done
}

// Done is closed when the worker exits.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) loop() {
	defer close(w.done)

	for req := range w.requests {
		switch req := req.(type) {
		case StartRequest:
			if !w.render(req.Options) {
				return
			}
		case CancelRequest:
			w.notify(ErrorMessage{Err: ErrNoActiveRender})
		case TerminateRequest:
			return
		}
	}
}

// render runs one render to completion, cancellation or failure. It
// returns false when the worker should exit.
func (w *Worker) render(opts Options) bool {
	w.notify(StartingMessage{})

	r, err := New(opts)
	if err != nil {
		w.notify(ErrorMessage{Err: err})
		return true
	}

	var lastProgress time.Time
	for {
		select {
		case req := <-w.requests:
			switch req.(type) {
			case StartRequest:
				w.notify(ErrorMessage{Err: ErrRenderActive})
			case CancelRequest:
				if err := r.Finish(); err != nil {
					w.notify(ErrorMessage{Err: err})
				}
				w.notify(CancelledMessage{})
				return true
			case TerminateRequest:
				r.Finish()
				return false
			}
		default:
		}

		more, err := r.Step()
		if err != nil {
			r.Finish()
			w.notify(ErrorMessage{Err: err})
			return true
		}

		if time.Since(lastProgress) >= progressInterval {
			lastProgress = time.Now()
			w.notify(ProgressMessage{Progress: r.Progress()})
		}
		if !more {
			break
		}
	}

	if err := r.Finish(); err != nil {
		w.notify(ErrorMessage{Err: err})
		return true
	}
	w.notify(CompleteMessage{Progress: r.Progress()})
	return true
}
