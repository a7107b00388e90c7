package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner shows that a long operation such as a login is in progress.
type Spinner struct {
	w        io.Writer
	mu       sync.Mutex
	message  string
	frames   []string
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSpinner creates a new spinner.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r\033[K%s %s", s.frames[i%len(s.frames)], s.message)
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Update replaces the message, e.g. when login turns into a challenge.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.finish("\r\033[K")
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	s.finish("\r\033[K✓ " + message + "\n")
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	s.finish("\r\033[K✗ " + message + "\n")
}

func (s *Spinner) finish(final string) {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.mu.Lock()
		fmt.Fprint(s.w, final)
		s.mu.Unlock()
	})
}
