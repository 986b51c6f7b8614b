// Package navigation models the client's current location and route changes.
package navigation

import (
	"fmt"
	"io"
	"sync"
)

// Navigator is the surface session handling drives when it has to move the user.
type Navigator interface {
	// Location returns the current route.
	Location() string
	// Navigate moves to route. Navigation is fire-and-forget.
	Navigate(route string)
}

// History is a Navigator that records every navigation. It optionally announces each move on
// a writer, which is how the CLI tells the operator to sign in again.
type History struct {
	mu      sync.Mutex
	current string
	visited []string
	out     io.Writer
}

// NewHistory starts at route start. out may be nil.
func NewHistory(start string, out io.Writer) *History {
	return &History{current: start, out: out}
}

func (h *History) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *History) Navigate(route string) {
	h.mu.Lock()
	h.current = route
	h.visited = append(h.visited, route)
	out := h.out
	h.mu.Unlock()

	if out != nil {
		fmt.Fprintf(out, "-> %s\n", route)
	}
}

// SetLocation moves to route without recording a navigation, e.g. when a command starts on a
// given screen.
func (h *History) SetLocation(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = route
}

// Visited returns the recorded navigations, oldest first.
func (h *History) Visited() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.visited...)
}
