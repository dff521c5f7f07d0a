package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a message on the console while a pipeline stage runs.
// It draws nothing unless the console is a terminal, and stops on its own
// when ctx ends.
type spinner struct {
	con     *console
	message string

	ctx    context.Context
	cancel context.CancelFunc

	once    sync.Once
	stopped chan struct{}
}

func (c *console) spinner(ctx context.Context, message string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{
		con:     c,
		message: message,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start runs the animation until Stop or cancellation of the parent context.
func (s *spinner) Start() {
	go func() {
		defer close(s.stopped)
		if !s.con.tty {
			<-s.ctx.Done()
			return
		}
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.erase()
				return
			case <-tick.C:
				fmt.Fprintf(s.con.w, "\r%s %s", styleAccent.Render(spinnerFrames[i%len(spinnerFrames)]), styleFaint.Render(s.message))
			}
		}
	}()
}

// Stop ends the animation and waits for the line to be cleared. It may be
// called more than once.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

// Done stops the spinner and reports success.
func (s *spinner) Done(message string) {
	s.Stop()
	s.con.ok("%s", message)
}

// Fail stops the spinner and reports an error.
func (s *spinner) Fail(message string) {
	s.Stop()
	s.con.fail("%s", message)
}

// Cancelled reports whether the spinner has stopped, either through Stop
// or because its parent context ended.
func (s *spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *spinner) erase() {
	fmt.Fprintf(s.con.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
