package forge

import (
	"reflect"
	"runtime"
	"sync"
)

// Dispatcher partitions a stage's systems into conflict-free groups and runs
// each group's systems concurrently, one group at a time. Two systems
// conflict if their declared access sets share a component type, or if
// either declared no access at all — an undeclared system is assumed to
// touch everything and always runs alone in a group of its own, so
// undeclared systems keep their registration order relative to each other.
// A system that declares access with WithAccess joins the earliest group it
// does not conflict with, which can put it ahead of systems registered
// before it.
type Dispatcher struct {
	workers int

	locksMu sync.Mutex
	locks   map[reflect.Type]*prwLock
}

// NewDispatcher builds a Dispatcher backed by a worker pool sized to the
// host's available CPUs.
func NewDispatcher() *Dispatcher {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{workers: workers, locks: make(map[reflect.Type]*prwLock)}
}

func (d *Dispatcher) lockFor(t reflect.Type) *prwLock {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	l, ok := d.locks[t]
	if !ok {
		l = &prwLock{}
		d.locks[t] = l
	}
	return l
}

// Partition splits systems into ordered groups such that no two systems in
// the same group declare overlapping access, and every group is internally
// safe to run concurrently. Each system with no declared access gets a new
// group of its own; a system with declared access joins the earliest
// existing group of declared systems it does not conflict with, or starts a
// new group at the end. Groups are ordered by when they were started, so a
// declared system can land in a group ahead of systems registered before it.
func (d *Dispatcher) Partition(systems []scheduledSystem) [][]scheduledSystem {
	var groups [][]scheduledSystem
	var groupAccess []map[reflect.Type]bool

	for _, sys := range systems {
		if len(sys.access) == 0 {
			groups = append(groups, []scheduledSystem{sys})
			groupAccess = append(groupAccess, nil)
			continue
		}

		placed := false
		for i, touched := range groupAccess {
			if touched == nil || conflicts(touched, sys.access) {
				continue
			}
			groups[i] = append(groups[i], sys)
			for _, t := range sys.access {
				touched[t] = true
			}
			placed = true
			break
		}
		if placed {
			continue
		}

		touched := make(map[reflect.Type]bool, len(sys.access))
		for _, t := range sys.access {
			touched[t] = true
		}
		groups = append(groups, []scheduledSystem{sys})
		groupAccess = append(groupAccess, touched)
	}

	return groups
}

func conflicts(touched map[reflect.Type]bool, access []reflect.Type) bool {
	for _, t := range access {
		if touched[t] {
			return true
		}
	}
	return false
}

// Run executes systems group by group: groups run in order (a barrier
// between them), and the systems within a group run concurrently across the
// dispatcher's worker pool. call is invoked once per system, on whatever
// goroutine the pool assigns it. Each concurrent system's declared access is
// also guarded by a per-type prwLock as a second line of defense: if
// Partition's bookkeeping were ever wrong, the conflicting PRW panics
// instead of silently racing.
func (d *Dispatcher) Run(systems []scheduledSystem, call func(systemFn)) {
	for _, group := range d.Partition(systems) {
		if len(group) == 1 {
			call(group[0].fn)
			continue
		}

		sem := make(chan struct{}, d.workers)
		var wg sync.WaitGroup
		for _, sys := range group {
			wg.Add(1)
			sem <- struct{}{}
			go func(sys scheduledSystem) {
				defer wg.Done()
				defer func() { <-sem }()

				locks := make([]*prwLock, len(sys.access))
				for i, t := range sys.access {
					locks[i] = d.lockFor(t)
					locks[i].TryLock()
				}
				defer func() {
					for _, l := range locks {
						l.Unlock()
					}
				}()

				call(sys.fn)
			}(sys)
		}
		wg.Wait()
	}
}
