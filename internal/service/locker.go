package service

import (
	"github.com/google/uuid"
	"github.com/moby/locker"
)

// unitLocker serializes work on one equipment unit inside this process.
// moby/locker reference counts the named mutexes and drops idle ones.
type unitLocker struct {
	names *locker.Locker
}

func newUnitLocker() *unitLocker {
	return &unitLocker{names: locker.New()}
}

// Lock blocks until id is free and returns the release func.
func (l *unitLocker) Lock(id uuid.UUID) func() {
	name := id.String()
	l.names.Lock(name)
	return func() {
		// Unlock only fails for a name that is not held.
		_ = l.names.Unlock(name)
	}
}
