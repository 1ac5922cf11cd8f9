package apiclient

import (
	"fmt"
	"sync"
	"time"
)

// EventKind classifies a response the transport considers significant for
// the whole application rather than for the caller alone.
type EventKind int

const (
	MaintenanceDetected EventKind = iota + 1
	UnauthorizedDetected
	ForbiddenDetected
)

func (k EventKind) String() string {
	switch k {
	case MaintenanceDetected:
		return "maintenance-detected"
	case UnauthorizedDetected:
		return "unauthorized-detected"
	case ForbiddenDetected:
		return "forbidden-detected"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is emitted once per significant response. Token is the bearer token
// the request carried, empty for anonymous requests.
type Event struct {
	Kind       EventKind
	Token      string
	Path       string
	StatusCode int
	At         time.Time
}

type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type observerSet struct {
	mu        sync.RWMutex
	observers []Observer
}

func (s *observerSet) add(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// emit delivers synchronously, in registration order. Observers must not
// issue requests through the same client from inside Observe.
func (s *observerSet) emit(e Event) {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		o.Observe(e)
	}
}
