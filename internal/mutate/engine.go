// Package mutate applies user mutations optimistically: the predicted local
// effect lands in the store synchronously, the remote call fires on a
// goroutine without blocking the caller, and the reconciliation loop is asked
// to refetch shortly after. Remote failures are logged, never rolled back;
// the next reconciliation corrects whatever the server did not accept.
package mutate

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itellico/joi-console/internal/gateway"
	"github.com/itellico/joi-console/internal/model"
	"github.com/itellico/joi-console/internal/store"
)

// Remote is the mutation side of the gateway.
type Remote interface {
	Complete(ctx context.Context, id string) error
	Uncomplete(ctx context.Context, id string) error
	UpdateTask(ctx context.Context, id string, p gateway.UpdatePayload) error
	MoveList(ctx context.Context, id string, list model.List) error
	MoveProject(ctx context.Context, id, projectID, headingID string) error
	Duplicate(ctx context.Context, id string) error
	ConvertToProject(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
	AppendChecklist(ctx context.Context, id, title string) error
	ToggleChecklistItem(ctx context.Context, id, itemID string) error
	DeleteChecklistItem(ctx context.Context, id, itemID string) error
	CreateTask(ctx context.Context, p gateway.CreateTaskPayload) error
}

// Refresher schedules post-mutation refetches.
type Refresher interface {
	RefetchAfter(delays ...time.Duration)
}

type Engine struct {
	store     *store.Store
	remote    Remote
	refresher Refresher
	logger    *log.Logger

	completeDelay time.Duration
	remoteTimeout time.Duration
	delays        []time.Duration

	// after is time.AfterFunc unless a test substitutes it.
	after func(d time.Duration, fn func()) *time.Timer

	wg sync.WaitGroup
}

type Config struct {
	Store     *store.Store
	Remote    Remote
	Refresher Refresher
	Logger    *log.Logger

	// CompleteDelay is how long a task lingers in the transient
	// completing/uncompleting state before its local removal.
	CompleteDelay time.Duration
	RemoteTimeout time.Duration
	RefetchDelays []time.Duration
}

func New(cfg Config) *Engine {
	if cfg.CompleteDelay <= 0 {
		cfg.CompleteDelay = 700 * time.Millisecond
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 15 * time.Second
	}
	if len(cfg.RefetchDelays) == 0 {
		cfg.RefetchDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[mutate] ", log.LstdFlags)
	}
	return &Engine{
		store:         cfg.Store,
		remote:        cfg.Remote,
		refresher:     cfg.Refresher,
		logger:        cfg.Logger,
		completeDelay: cfg.CompleteDelay,
		remoteTimeout: cfg.RemoteTimeout,
		delays:        cfg.RefetchDelays,
		after:         time.AfterFunc,
	}
}

// fire runs one remote call without blocking the caller. There is no
// cancellation and no rollback; the only undo is a compensating mutation.
func (e *Engine) fire(op string, call func(ctx context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.remoteTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			e.logger.Printf("%s: %v (local state stands until next reconciliation)", op, err)
		}
	}()
}

// Flush waits for in-flight remote calls. Used at shutdown and in tests.
func (e *Engine) Flush() {
	e.wg.Wait()
}

// Complete marks the task completing, removes it locally after the transient
// delay, and lets reconciliation materialize the logbook entry. The staggered
// refetches absorb server-side recurrence regeneration.
func (e *Engine) Complete(id string) bool {
	if !e.store.PatchTask(id, func(t *model.Task) { t.Completing = true }) {
		return false
	}
	e.after(e.completeDelay, func() { e.store.RemoveTask(id) })
	e.fire("complete", func(ctx context.Context) error { return e.remote.Complete(ctx, id) })
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// Uncomplete mirrors Complete on the logbook side. No task stub is
// fabricated locally: the server assigns the resurrected task's fields, so
// it only becomes visible after reconciliation.
func (e *Engine) Uncomplete(id string) bool {
	if !e.store.PatchCompleted(id, func(c *model.CompletedTask) { c.Uncompleting = true }) {
		return false
	}
	e.after(e.completeDelay, func() { e.store.RemoveCompleted(id) })
	e.fire("uncomplete", func(ctx context.Context) error { return e.remote.Uncomplete(ctx, id) })
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// Fields is an update request; nil means "leave unchanged".
type Fields struct {
	Title    *string
	Notes    *string
	When     *string
	Deadline *string
	Tags     *[]string
}

// Update sends only fields that differ from the current local value; an
// empty diff issues no remote call at all. The when field patches the local
// list only for unambiguous symbolic values; date-based values are left to
// the server.
func (e *Engine) Update(id string, f Fields) bool {
	snap := e.store.Snapshot()
	t, ok := snap.FindTask(id)
	if !ok {
		return false
	}

	var p gateway.UpdatePayload
	if f.Title != nil && *f.Title != t.Title {
		p.Title = f.Title
	}
	if f.Notes != nil && *f.Notes != t.Notes {
		p.Notes = f.Notes
	}
	if f.Deadline != nil && *f.Deadline != t.Deadline {
		p.Deadline = f.Deadline
	}
	if f.Tags != nil && !equalStrings(*f.Tags, t.Tags) {
		p.Tags = f.Tags
	}
	if f.When != nil {
		if list, symbolic := model.ParseList(*f.When); !symbolic || list != t.List {
			p.When = f.When
		}
	}
	if p.Empty() {
		return false
	}

	e.store.PatchTask(id, func(t *model.Task) {
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Notes != nil {
			t.Notes = *p.Notes
		}
		if p.Deadline != nil {
			t.Deadline = *p.Deadline
		}
		if p.Tags != nil {
			t.Tags = append([]string(nil), (*p.Tags)...)
		}
		if p.When != nil {
			if list, symbolic := model.ParseList(*p.When); symbolic {
				t.List = list
			}
		}
	})
	e.fire("update", func(ctx context.Context) error { return e.remote.UpdateTask(ctx, id, p) })
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// MoveList reassigns the task's bucket. Moving onto the bucket the task
// already occupies is a no-op: no patch, no network call.
func (e *Engine) MoveList(id string, target model.List) bool {
	snap := e.store.Snapshot()
	t, ok := snap.FindTask(id)
	if !ok || t.List == target {
		return false
	}
	e.store.PatchTask(id, func(t *model.Task) { t.List = target })
	e.fire("move-list", func(ctx context.Context) error { return e.remote.MoveList(ctx, id, target) })
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// MoveProject reassigns the task to a project (and optionally one of its
// headings), patching the denormalized titles so the composer groups it
// correctly before the refetch lands.
func (e *Engine) MoveProject(id, projectID, headingID string) bool {
	snap := e.store.Snapshot()
	if _, ok := snap.FindTask(id); !ok {
		return false
	}
	projectTitle := ""
	if p, ok := snap.FindProject(projectID); ok {
		projectTitle = p.Title
	}
	headingTitle := ""
	if h, ok := snap.FindHeading(headingID); ok {
		headingTitle = h.Title
	}

	e.store.PatchTask(id, func(t *model.Task) {
		t.ProjectID = projectID
		t.ProjectTitle = projectTitle
		t.HeadingID = headingID
		t.HeadingTitle = headingTitle
	})
	e.fire("move-project", func(ctx context.Context) error {
		return e.remote.MoveProject(ctx, id, projectID, headingID)
	})
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// ToggleChecklistItem flips one item and recounts both denormalized counters
// in the same local transaction.
func (e *Engine) ToggleChecklistItem(taskID, itemID string) bool {
	found := false
	ok := e.store.PatchTask(taskID, func(t *model.Task) {
		for i := range t.Checklist {
			if t.Checklist[i].ID == itemID {
				t.Checklist[i].Completed = !t.Checklist[i].Completed
				found = true
				return
			}
		}
	})
	if !ok || !found {
		return false
	}
	e.fire("checklist-toggle", func(ctx context.Context) error {
		return e.remote.ToggleChecklistItem(ctx, taskID, itemID)
	})
	e.refresher.RefetchAfter(e.delays...)
	return true
}

func (e *Engine) DeleteChecklistItem(taskID, itemID string) bool {
	found := false
	ok := e.store.PatchTask(taskID, func(t *model.Task) {
		out := t.Checklist[:0]
		for _, it := range t.Checklist {
			if it.ID == itemID {
				found = true
				continue
			}
			out = append(out, it)
		}
		t.Checklist = out
	})
	if !ok || !found {
		return false
	}
	e.fire("checklist-delete", func(ctx context.Context) error {
		return e.remote.DeleteChecklistItem(ctx, taskID, itemID)
	})
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// AppendChecklistItem fabricates a stub item under a temporary id; the next
// reconciliation swaps in the server-issued row.
func (e *Engine) AppendChecklistItem(taskID, title string) bool {
	stubID := "tmp-" + uuid.NewString()
	ok := e.store.PatchTask(taskID, func(t *model.Task) {
		t.Checklist = append(t.Checklist, model.ChecklistItem{
			ID:    stubID,
			Title: title,
			Index: len(t.Checklist),
		})
	})
	if !ok {
		return false
	}
	e.fire("checklist-append", func(ctx context.Context) error {
		return e.remote.AppendChecklist(ctx, taskID, title)
	})
	e.refresher.RefetchAfter(e.delays...)
	return true
}

// CreateTask appends a local stub so the new task is visible immediately;
// the server-assigned identity arrives with the refetch.
func (e *Engine) CreateTask(p gateway.CreateTaskPayload) string {
	list := model.ListInbox
	if l, ok := model.ParseList(p.When); ok {
		list = l
	}
	stub := model.Task{
		ID:        "tmp-" + uuid.NewString(),
		Title:     p.Title,
		Notes:     p.Notes,
		List:      list,
		ProjectID: p.ProjectID,
		AreaID:    p.AreaID,
		Tags:      append([]string(nil), p.Tags...),
		CreatedAt: time.Now().UTC(),
		Index:     int(^uint(0) >> 1), // sort after everything until reconciled
	}
	e.store.AppendTask(stub)
	e.fire("create-task", func(ctx context.Context) error { return e.remote.CreateTask(ctx, p) })
	e.refresher.RefetchAfter(e.delays...)
	return stub.ID
}

// Duplicate has no local prediction: the new entity's identity does not
// exist yet, only the refetch reveals it.
func (e *Engine) Duplicate(id string) {
	e.fire("duplicate", func(ctx context.Context) error { return e.remote.Duplicate(ctx, id) })
	e.refresher.RefetchAfter(e.delays...)
}

func (e *Engine) ConvertToProject(id string) {
	e.fire("convert-to-project", func(ctx context.Context) error { return e.remote.ConvertToProject(ctx, id) })
	e.refresher.RefetchAfter(e.delays...)
}

// Delete removes the task immediately; it is not staged like Complete.
func (e *Engine) Delete(id string) bool {
	if !e.store.RemoveTask(id) {
		return false
	}
	e.fire("delete", func(ctx context.Context) error { return e.remote.DeleteTask(ctx, id) })
	e.refresher.RefetchAfter(e.delays...)
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
