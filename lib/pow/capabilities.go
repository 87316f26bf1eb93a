package pow

import "runtime"

// Capabilities describes how much search parallelism the runtime offers.
type Capabilities struct {
	// ParallelSearchAvailable is set when more than one worker can make
	// progress at once.
	ParallelSearchAvailable bool `json:"parallel_search_available"`

	// MaxWorkers is the number of workers worth spawning, never zero.
	MaxWorkers uint32 `json:"max_workers"`
}

// DetectCapabilities probes the Go runtime for usable parallelism. It never
// fails: a runtime without parallelism reports a single worker.
func DetectCapabilities() Capabilities {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}

	return Capabilities{
		ParallelSearchAvailable: n > 1,
		MaxWorkers:              uint32(n),
	}
}
