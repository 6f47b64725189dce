package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler turns SIGINT/SIGTERM into context cancellation and tells
// the operator what happened to the open cart.
type InterruptHandler struct {
	writer      io.Writer
	cancelFunc  context.CancelFunc
	sigChan     chan os.Signal
	openLines   func() int
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
	}
}

// HandleInterrupts returns a context canceled on the first interrupt.
// openLines, when non-nil, reports how many cart lines are left unsold.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, openLines func() int) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.cancelFunc = cancel
	h.openLines = openLines
	h.sigChan = make(chan os.Signal, 1)
	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-h.sigChan:
			h.interrupt()
		case <-ctx.Done():
		}
		signal.Stop(h.sigChan)
	}()

	return ctx
}

// Stop releases the signal subscription and cancels the derived context.
func (h *InterruptHandler) Stop() {
	if h.cancelFunc != nil {
		h.cancelFunc()
	}
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	if !h.interrupted {
		h.interrupted = true
		h.showInterruptMessage()
	}
	h.mu.Unlock()
	if h.cancelFunc != nil {
		h.cancelFunc()
	}
}

// showInterruptMessage displays the interrupt notice.
func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + Say(ToneWarn, "Checkout session interrupted!")

	if h.openLines != nil {
		if n := h.openLines(); n > 0 {
			msg += "\n" + Say(ToneNote, fmt.Sprintf("%d cart line(s) were not checked out", n))
		}
	}

	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
