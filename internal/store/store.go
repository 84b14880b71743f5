// Package store holds the local replica of the remote task graph.
//
// The store is the single mutable shared resource: the reconciliation loop
// replaces whole generations, the mutation engine patches single rows, and
// readers compose views from value snapshots. Writers never mutate shared
// slices in place; every write is copy-on-write followed by an atomic swap,
// so a reader holding a Snapshot keeps a fully formed generation.
package store

import (
	"sync"

	"github.com/itellico/joi-console/internal/model"
)

type Store struct {
	mu   sync.RWMutex
	snap model.Snapshot

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func New() *Store {
	return &Store{subs: map[int]chan struct{}{}}
}

// Snapshot returns the current generation by value. The contained slices are
// shared with the store but are never written after publication.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace swaps in a whole new generation atomically. Calling it twice with
// the same snapshot is idempotent.
func (s *Store) Replace(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.notify()
}

// PatchTask applies fn to a private copy of the task, recomputes the
// checklist counters, and publishes a new Tasks slice. Returns false if the
// task is not in the current generation.
func (s *Store) PatchTask(id string, fn func(*model.Task)) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.snap.Tasks {
		if s.snap.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	tasks := make([]model.Task, len(s.snap.Tasks))
	copy(tasks, s.snap.Tasks)

	t := tasks[idx]
	t.Checklist = append([]model.ChecklistItem(nil), t.Checklist...)
	t.Tags = append([]string(nil), t.Tags...)
	fn(&t)
	recountChecklist(&t)
	tasks[idx] = t

	s.snap.Tasks = tasks
	s.mu.Unlock()
	s.notify()
	return true
}

// AppendTask adds a locally fabricated task (optimistic create). The next
// reconciliation replaces it with the server's row.
func (s *Store) AppendTask(t model.Task) {
	recountChecklist(&t)
	s.mu.Lock()
	tasks := make([]model.Task, 0, len(s.snap.Tasks)+1)
	tasks = append(tasks, s.snap.Tasks...)
	tasks = append(tasks, t)
	s.snap.Tasks = tasks
	s.mu.Unlock()
	s.notify()
}

// RemoveTask deletes one task. Project.TaskCount is deliberately left alone;
// the next reconciliation corrects it.
func (s *Store) RemoveTask(id string) bool {
	s.mu.Lock()
	tasks, removed := removeTaskByID(s.snap.Tasks, id)
	if !removed {
		s.mu.Unlock()
		return false
	}
	s.snap.Tasks = tasks
	s.mu.Unlock()
	s.notify()
	return true
}

// PatchCompleted applies fn to a private copy of one logbook entry.
func (s *Store) PatchCompleted(id string, fn func(*model.CompletedTask)) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.snap.Completed {
		if s.snap.Completed[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	completed := make([]model.CompletedTask, len(s.snap.Completed))
	copy(completed, s.snap.Completed)
	c := completed[idx]
	fn(&c)
	completed[idx] = c

	s.snap.Completed = completed
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) RemoveCompleted(id string) bool {
	s.mu.Lock()
	out := make([]model.CompletedTask, 0, len(s.snap.Completed))
	removed := false
	for _, c := range s.snap.Completed {
		if c.ID == id {
			removed = true
			continue
		}
		out = append(out, c)
	}
	if !removed {
		s.mu.Unlock()
		return false
	}
	s.snap.Completed = out
	s.mu.Unlock()
	s.notify()
	return true
}

// Subscribe registers a coalesced change listener. The returned cancel func
// removes it. Notifications never block a writer: a pending signal on the
// channel stands for any number of changes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func removeTaskByID(tasks []model.Task, id string) ([]model.Task, bool) {
	out := make([]model.Task, 0, len(tasks))
	removed := false
	for _, t := range tasks {
		if t.ID == id {
			removed = true
			continue
		}
		out = append(out, t)
	}
	return out, removed
}

func recountChecklist(t *model.Task) {
	done := 0
	for _, it := range t.Checklist {
		if it.Completed {
			done++
		}
	}
	t.ChecklistTotal = len(t.Checklist)
	t.ChecklistDone = done
}
