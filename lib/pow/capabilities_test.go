package pow

import "testing"

func TestDetectCapabilities(t *testing.T) {
	caps := DetectCapabilities()

	if caps.MaxWorkers < 1 {
		t.Errorf("MaxWorkers must never be zero, got: %d", caps.MaxWorkers)
	}

	if caps.ParallelSearchAvailable && caps.MaxWorkers < 2 {
		t.Error("parallel search reported available with fewer than two workers")
	}
}
