package htest

import (
	"testing"
	"time"
)

// ScaleMs returns ms milliseconds, for test timeouts.
func ScaleMs(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ReceiveSoon receives a value from ch,
// failing the test if nothing arrives within a short timeout.
func ReceiveSoon[T any](t testing.TB, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(ScaleMs(2000)):
		t.Fatalf("no value received within 2s")
		panic("unreachable")
	}
}
