package refresh

import "sync"

// hostGate caps concurrent connections per host with one counting semaphore
// per host. A slow host saturates only its own slots; feeds on other hosts
// keep fetching, and the per-fetch timeout bounds how long a slot is held.
type hostGate struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	cap   int
}

func newHostGate(perHost int) *hostGate {
	return &hostGate{
		slots: make(map[string]chan struct{}),
		cap:   perHost,
	}
}

// acquire blocks until a slot for host is free and returns the release func
func (g *hostGate) acquire(host string) func() {
	g.mu.Lock()
	sem, ok := g.slots[host]
	if !ok {
		sem = make(chan struct{}, g.cap)
		g.slots[host] = sem
	}
	g.mu.Unlock()

	sem <- struct{}{}
	return func() { <-sem }
}
