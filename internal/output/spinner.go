package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 80 * time.Millisecond

// Spinner shows audit progress on a writer, usually stderr. Update and
// Phase may be called from any goroutine.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	done    chan struct{}
	exited  chan struct{}
	running bool
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Interactive reports whether f is a terminal worth animating.
func Interactive(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start begins the animation with message. Starting a running spinner
// only replaces the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	go s.loop(s.done, s.exited)
}

// Update replaces the displayed message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Phase shows the name of the detection layer being run.
func (s *Spinner) Phase(name string) {
	s.Update("Auditing: " + name)
}

// Stop halts the animation and clears its line. It is idempotent.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done, exited := s.done, s.exited
	s.mu.Unlock()

	close(done)
	<-exited

	s.mu.Lock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len([]rune(s.message))+4))
	s.mu.Unlock()
}

func (s *Spinner) loop(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			line := fmt.Sprintf("\r%c %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			fmt.Fprintf(s.w, "%-80s", line)
			s.mu.Unlock()
		}
	}
}
