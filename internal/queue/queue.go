// Package queue holds the in-memory observable model of processed print jobs.
package queue

import (
	"sync"
	"time"
)

// Job is one requested print task. Immutable once submitted.
type Job struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"fileUrl"`
	DisplayName string    `json:"fileName"`
	Landscape   bool      `json:"landscape"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// FailedJob is a job that terminated with an unrecoverable error.
type FailedJob struct {
	Job    Job    `json:"job"`
	Reason string `json:"reason"`
}

type Collection int

const (
	Succeeded Collection = iota
	Failed
)

func (c Collection) String() string {
	if c == Failed {
		return "failed"
	}
	return "succeeded"
}

type Op int

const (
	Added Op = iota
	Cleared
)

// Change describes one mutation. From and To are the inclusive index range
// affected, so an observer can update a view incrementally.
type Change struct {
	Collection Collection
	Op         Op
	From       int
	To         int
}

// Model keeps the succeeded and failed collections. All operations are safe
// under concurrent use; reads return snapshots.
type Model struct {
	mu        sync.RWMutex
	succeeded []Job
	failed    []FailedJob

	subMu  sync.RWMutex
	subs   map[int]func(Change)
	nextID int
}

func NewModel() *Model {
	return &Model{subs: make(map[int]func(Change))}
}

// Subscribe registers a change listener and returns its cancel function.
// Both are safe to call from within a notification callback.
func (m *Model) Subscribe(fn func(Change)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Model) notify(ch Change) {
	m.subMu.RLock()
	fns := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.RUnlock()

	for _, fn := range fns {
		fn(ch)
	}
}

func (m *Model) AddSucceeded(job Job) {
	m.mu.Lock()
	m.succeeded = append(m.succeeded, job)
	index := len(m.succeeded) - 1
	m.mu.Unlock()

	m.notify(Change{Collection: Succeeded, Op: Added, From: index, To: index})
}

func (m *Model) AddSucceededBatch(jobs []Job) {
	if len(jobs) == 0 {
		return
	}

	m.mu.Lock()
	from := len(m.succeeded)
	m.succeeded = append(m.succeeded, jobs...)
	to := len(m.succeeded) - 1
	m.mu.Unlock()

	m.notify(Change{Collection: Succeeded, Op: Added, From: from, To: to})
}

func (m *Model) AddFailed(job Job, reason string) {
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{Job: job, Reason: reason})
	index := len(m.failed) - 1
	m.mu.Unlock()

	m.notify(Change{Collection: Failed, Op: Added, From: index, To: index})
}

func (m *Model) ClearSucceeded() {
	m.mu.Lock()
	size := len(m.succeeded)
	m.succeeded = nil
	m.mu.Unlock()

	if size > 0 {
		m.notify(Change{Collection: Succeeded, Op: Cleared, From: 0, To: size - 1})
	}
}

func (m *Model) ClearFailed() {
	m.mu.Lock()
	size := len(m.failed)
	m.failed = nil
	m.mu.Unlock()

	if size > 0 {
		m.notify(Change{Collection: Failed, Op: Cleared, From: 0, To: size - 1})
	}
}

// Succeeded returns a snapshot of the succeeded collection.
func (m *Model) Succeeded() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, len(m.succeeded))
	copy(jobs, m.succeeded)
	return jobs
}

// SucceededAt returns the succeeded jobs at the given indices. Out-of-range
// indices are skipped.
func (m *Model) SucceededAt(indices []int) []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(m.succeeded) {
			jobs = append(jobs, m.succeeded[i])
		}
	}
	return jobs
}

// Failed returns a snapshot of the failed collection.
func (m *Model) Failed() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failed := make([]FailedJob, len(m.failed))
	copy(failed, m.failed)
	return failed
}

func (m *Model) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.succeeded) == 0
}

// Size reports the number of succeeded jobs.
func (m *Model) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.succeeded)
}

// FailedSize reports the number of failed jobs.
func (m *Model) FailedSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.failed)
}
