package refresh

import (
	"testing"
	"time"
)

func TestHostGateCapsPerHost(t *testing.T) {
	gate := newHostGate(1)

	release := gate.acquire("a.example.com")

	acquired := make(chan struct{})
	go func() {
		r := gate.acquire("a.example.com")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("Second acquire on a full host must block")
	case <-time.After(50 * time.Millisecond):
	}

	// A different host is unaffected by the saturated one.
	releaseOther := gate.acquire("b.example.com")
	releaseOther()

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Acquire must proceed once the slot is released")
	}
}
