package services

import "sync"

// projectLocks serializes mutations per project ID so that the membership
// snapshot a decision was made against is still current when the write lands.
// Entries are never evicted; the table is bounded by the number of projects
// mutated by this process.
type projectLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[uint]*sync.Mutex)}
}

// acquire locks the given project and returns the matching unlock function.
func (l *projectLocks) acquire(projectID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[projectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[projectID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
