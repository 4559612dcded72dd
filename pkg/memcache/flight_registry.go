// pkg/memcache/flight_registry.go
package mem

import (
	"sync"
)

// FlightRegistry is a keyed single-flight memo. For a given key, the first
// caller of Do runs fn; concurrent callers block until it finishes and then
// observe the same result. Completed entries are retained, so later callers
// within the same process get the cached result without re-running fn.
//
// Three observable states per key: never attempted (no entry), in flight
// (entry with open done channel), completed (entry with closed done channel).
type FlightRegistry struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	done   chan struct{}
	result string
	err    error
}

func NewFlightRegistry() *FlightRegistry {
	return &FlightRegistry{
		flights: make(map[string]*flight),
	}
}

func (r *FlightRegistry) Do(key string, fn func() (string, error)) (string, error) {
	r.mu.Lock()
	if f, ok := r.flights[key]; ok {
		r.mu.Unlock()
		<-f.done
		return f.result, f.err
	}

	f := &flight{done: make(chan struct{})}
	r.flights[key] = f
	r.mu.Unlock()

	f.result, f.err = fn()
	close(f.done)
	return f.result, f.err
}

// Peek reads a completed result without starting a flight. The second return
// is false while the key is unknown or still in flight.
func (r *FlightRegistry) Peek(key string) (string, bool) {
	r.mu.Lock()
	f, ok := r.flights[key]
	r.mu.Unlock()
	if !ok {
		return "", false
	}
	select {
	case <-f.done:
		return f.result, f.err == nil
	default:
		return "", false
	}
}

// Forget drops a key so the next Do runs fn again. Used by tests and by
// callers that want a failed flight to be retryable.
func (r *FlightRegistry) Forget(key string) {
	r.mu.Lock()
	delete(r.flights, key)
	r.mu.Unlock()
}
