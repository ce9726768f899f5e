package forge

import (
	"errors"
	"sync/atomic"
)

// ErrSchedulerConflict is the panic value raised when two dispatcher-run
// systems take the prwLock of the same declared component type at the same
// time. Dispatcher.Run locks only the types a system declared in WithAccess,
// and Dispatcher.Partition only ever groups systems with disjoint declared
// access, so surfacing this means the grouping itself went wrong — a bug to
// fix, not a race to retry.
var ErrSchedulerConflict = errors.New("forge: scheduler conflict: concurrent read/write access detected")

// prwLock is a reader-writer lock that panics on contention instead of
// blocking, per the rule that a scheduling conflict should surface
// immediately rather than stall a frame waiting on a lock that should
// never have been contended in the first place.
type prwLock struct {
	state int32 // 0 free, -1 held by a writer, >0 count of readers
}

const prwWriter = -1

func (l *prwLock) TryRLock() {
	for {
		s := atomic.LoadInt32(&l.state)
		if s == prwWriter {
			panic(ErrSchedulerConflict)
		}
		if atomic.CompareAndSwapInt32(&l.state, s, s+1) {
			return
		}
	}
}

func (l *prwLock) RUnlock() {
	atomic.AddInt32(&l.state, -1)
}

func (l *prwLock) TryLock() {
	if !atomic.CompareAndSwapInt32(&l.state, 0, prwWriter) {
		panic(ErrSchedulerConflict)
	}
}

func (l *prwLock) Unlock() {
	if !atomic.CompareAndSwapInt32(&l.state, prwWriter, 0) {
		panic("forge: prwLock unlocked without a matching TryLock")
	}
}
