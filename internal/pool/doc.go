// Package pool implements the upstream target pool: selection of the next
// target for a request, per-target failure tracking and eviction of targets
// that keep failing.
//
// A TargetPool is created once at startup and shared by reference between
// all request handlers. Every operation runs inside a single mutex-guarded
// critical section and never performs I/O, so it is safe and cheap to call
// from any goroutine.
//
// Typical dispatch loop:
//
//	addr, err := p.Next()
//	if errors.Is(err, pool.ErrPoolExhausted) {
//	    // reply 503
//	}
//	defer p.ReleaseConnection(addr)
//
//	if forwardErr != nil {
//	    p.ReportFailure(addr)
//	} else {
//	    p.ReportSuccess(addr)
//	}
package pool
