// Package taskstore implements the task store (C4): a mapping from task-id
// to task record, plus the monotonic total-task counter (invariant 7).
package taskstore

import (
	"sync"
	"time"

	"github.com/jhaveripatric/x402-agent-gateway/internal/a2a"
)

// notFoundError is returned by Get, Mutate and ForceCancel when a task-id
// is unknown.
type notFoundError struct{ id string }

func (e *notFoundError) Error() string { return "task not found: " + e.id }

// IsNotFound reports whether err is the not-found sentinel.
func IsNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

// Store is the process-wide task map, guarded by a single coarse mutex.
// Two concurrent correlated resubmissions for the same task-id are
// serialised here: whichever caller takes the lock first observes the
// pre-transition state and whichever runs second observes the already
// advanced task (§5).
type Store struct {
	mu    sync.Mutex
	tasks map[string]*a2a.Task
	total int64
}

// New creates an empty task store.
func New() *Store {
	return &Store{tasks: make(map[string]*a2a.Task)}
}

// Create inserts a new task in the given initial state and bumps the
// monotonic total-task counter. It never fails: task IDs are generated by
// the caller (uuid) and are assumed unique within the process lifetime.
func (s *Store) Create(id, contextID string, state a2a.TaskState, msg *a2a.Message) *a2a.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &a2a.Task{
		ID:        id,
		ContextID: contextID,
		Kind:      "task",
		Status: a2a.TaskStatus{
			State:     state,
			Timestamp: now(),
			Message:   msg,
		},
		Artifacts: []any{},
		Metadata:  map[string]any{},
	}
	if msg != nil {
		t.History = append(t.History, *msg)
	}

	s.tasks[id] = t
	s.total++
	return cloneTask(t)
}

// Get returns a copy of the stored task, or a not-found error.
func (s *Store) Get(id string) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, &notFoundError{id: id}
	}
	return cloneTask(t), nil
}

// Mutate runs fn with exclusive access to the stored task, guarding the
// entire read-modify-write cycle behind the store's lock so a transition
// decision is always made against the latest state. fn receives the live
// task pointer and may mutate it in place; Mutate refuses the mutation
// (and returns the unmodified task) if the task is already terminal,
// per invariant 1.
func (s *Store) Mutate(id string, fn func(t *a2a.Task)) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, &notFoundError{id: id}
	}
	if t.Status.State.Terminal() {
		return cloneTask(t), nil
	}
	fn(t)
	return cloneTask(t), nil
}

// ForceCancel transitions a task straight to canceled regardless of its
// current state, except when it is already terminal (invariant 1). Used
// by tasks/cancel.
func (s *Store) ForceCancel(id string) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, &notFoundError{id: id}
	}
	if !t.Status.State.Terminal() {
		t.Status.State = a2a.TaskStateCanceled
		t.Status.Timestamp = now()
	}
	return cloneTask(t), nil
}

// Evict removes a terminal task from the store. Non-terminal tasks are
// never evicted (the unspecified eviction policy in §4.10 still must not
// evict tasks still in input-required before their timeout).
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok && t.Status.State.Terminal() {
		delete(s.tasks, id)
	}
}

// Total returns the monotonic total-task counter.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// CountByState returns a snapshot of how many live tasks are in each state.
func (s *Store) CountByState() map[a2a.TaskState]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[a2a.TaskState]int{}
	for _, t := range s.tasks {
		out[t.Status.State]++
	}
	return out
}

// SeedTotal sets the counter's starting value, used when restoring from a
// snapshot (the snapshot preserves the counter but not live tasks,
// invariant 6).
func (s *Store) SeedTotal(total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if total > s.total {
		s.total = total
	}
}

func cloneTask(t *a2a.Task) *a2a.Task {
	c := *t
	c.History = append([]a2a.Message(nil), t.History...)
	c.Metadata = cloneMap(t.Metadata)
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
