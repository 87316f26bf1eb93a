package pow

// ProgressObserver receives periodic progress reports from search workers.
//
// Reports are best-effort: implementations must return without blocking,
// and workers make no ordering guarantee across each other's reports. A
// dropped report is not an error. The reported count is the monotonically
// increasing number of candidates one worker has tested, not a test result.
type ProgressObserver interface {
	Progress(worker int, tested int64)
}

// ProgressReport is one observation delivered through a ChanObserver.
type ProgressReport struct {
	Worker int
	Tested int64
}

// ChanObserver adapts a channel to the ProgressObserver contract. Reports
// are dropped instead of blocking when the channel is full.
type ChanObserver struct {
	C chan ProgressReport
}

func NewChanObserver(buffer int) *ChanObserver {
	return &ChanObserver{C: make(chan ProgressReport, buffer)}
}

func (o *ChanObserver) Progress(worker int, tested int64) {
	select {
	case o.C <- ProgressReport{Worker: worker, Tested: tested}:
	default:
	}
}
