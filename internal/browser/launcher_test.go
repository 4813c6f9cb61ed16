package browser

import "testing"

func TestStopWithoutLaunchIsNoOp(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9222})

	// Error paths stop the launcher unconditionally; with no spawned
	// process that must be safe to call, repeatedly.
	l.Stop()
	l.Stop()

	if l.Started() {
		t.Fatalf("Started() = true without a launch; want false")
	}
}
