package forge

import (
	"reflect"
	"sync/atomic"
	"testing"
)

type dispatchA struct{}
type dispatchB struct{}
type dispatchC struct{}

func TestDispatcher_PartitionGroupsDisjointAccess(t *testing.T) {
	d := NewDispatcher()

	typeA := reflect.TypeOf(dispatchA{})
	typeB := reflect.TypeOf(dispatchB{})
	typeC := reflect.TypeOf(dispatchC{})

	systems := []scheduledSystem{
		{fn: func() {}, access: []reflect.Type{typeA}},
		{fn: func() {}, access: []reflect.Type{typeB}},
		{fn: func() {}, access: []reflect.Type{typeA, typeC}},
	}

	groups := d.Partition(systems)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0]) != 2 {
		t.Errorf("expected first group to hold the two disjoint systems, got %d", len(groups[0]))
	}
	if len(groups[1]) != 1 {
		t.Errorf("expected second group to hold the conflicting system alone, got %d", len(groups[1]))
	}
}

func TestDispatcher_PartitionUndeclaredAccessIsExclusive(t *testing.T) {
	d := NewDispatcher()

	systems := []scheduledSystem{
		{fn: func() {}},
		{fn: func() {}},
	}

	groups := d.Partition(systems)
	if len(groups) != 2 {
		t.Fatalf("expected every system with no declared access to get its own group, got %d", len(groups))
	}
}

func TestDispatcher_RunExecutesEverySystem(t *testing.T) {
	d := NewDispatcher()

	typeA := reflect.TypeOf(dispatchA{})
	typeB := reflect.TypeOf(dispatchB{})

	var ran int32
	systems := []scheduledSystem{
		{fn: func() {}, access: []reflect.Type{typeA}},
		{fn: func() {}, access: []reflect.Type{typeB}},
		{fn: func() {}},
	}

	d.Run(systems, func(systemFn) {
		atomic.AddInt32(&ran, 1)
	})

	if ran != int32(len(systems)) {
		t.Errorf("expected all %d systems to run, got %d", len(systems), ran)
	}
}

func TestPRWLock_PanicsOnWriteConflict(t *testing.T) {
	var l prwLock
	l.TryLock()
	defer l.Unlock()

	defer func() {
		r := recover()
		if r != ErrSchedulerConflict {
			t.Errorf("expected panic value %v, got %v", ErrSchedulerConflict, r)
		}
	}()
	l.TryLock()
}

func TestPRWLock_AllowsConcurrentReaders(t *testing.T) {
	var l prwLock
	l.TryRLock()
	defer l.RUnlock()
	l.TryRLock()
	defer l.RUnlock()
}
