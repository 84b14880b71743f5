package reconcile

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/itellico/joi-console/internal/model"
	"github.com/itellico/joi-console/internal/store"
	"github.com/itellico/joi-console/internal/view"
)

type scriptedFetcher struct {
	mu        sync.Mutex
	snap      model.Snapshot
	completed []model.CompletedTask
	fail      bool
	fetches   int
}

func (f *scriptedFetcher) FetchAll(ctx context.Context) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fail {
		return model.Snapshot{}, errors.New("boom")
	}
	return f.snap, nil
}

func (f *scriptedFetcher) FetchLogbook(ctx context.Context, limit int) ([]model.CompletedTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("boom")
	}
	return f.completed, nil
}

func (f *scriptedFetcher) set(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *scriptedFetcher) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type recordingSaver struct {
	mu    sync.Mutex
	saves int
}

func (s *recordingSaver) Save(ctx context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Tasks:    []model.Task{{ID: "task-1", Title: "Buy milk", List: model.ListToday}},
		Projects: []model.Project{{ID: "proj-1", Title: "Errands", TaskCount: 1}},
	}
}

func TestRefreshReplacesStore(t *testing.T) {
	st := store.New()
	fetcher := &scriptedFetcher{
		snap:      testSnapshot(),
		completed: []model.CompletedTask{{ID: "done-1", Title: "Old", CompletedAt: time.Unix(1, 0)}},
	}
	saver := &recordingSaver{}
	l := New(Config{Store: st, Fetcher: fetcher, Saver: saver, Logger: quietLogger()})
	defer l.Stop()

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := st.Snapshot()
	if len(snap.Tasks) != 1 || len(snap.Completed) != 1 {
		t.Fatalf("store not replaced: %+v", snap)
	}
	if saver.saves != 1 {
		t.Fatalf("cache write-through not called")
	}
	if _, refreshes, errs := l.Stats(); refreshes != 1 || errs != 0 {
		t.Fatalf("stats: refreshes=%d errors=%d", refreshes, errs)
	}
}

func TestFailedFetchKeepsPreviousSnapshot(t *testing.T) {
	st := store.New()
	fetcher := &scriptedFetcher{snap: testSnapshot()}
	l := New(Config{Store: st, Fetcher: fetcher, Logger: quietLogger()})
	defer l.Stop()

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := st.Snapshot()

	fetcher.set(true)
	if err := l.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	after := st.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("failed fetch disturbed the snapshot")
	}
	if _, _, errs := l.Stats(); errs != 1 {
		t.Fatalf("error not counted")
	}
}

func TestRefreshIdempotentComposition(t *testing.T) {
	st := store.New()
	fetcher := &scriptedFetcher{snap: testSnapshot()}
	l := New(Config{Store: st, Fetcher: fetcher, Logger: quietLogger()})
	defer l.Stop()

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	first := view.Compose(st.Snapshot(), view.ListSelection(model.ListToday))
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	second := view.Compose(st.Snapshot(), view.ListSelection(model.ListToday))

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("section ordering changed across identical refreshes")
	}
}

func TestRefetchAfterSchedulesStaggeredRefreshes(t *testing.T) {
	st := store.New()
	fetcher := &scriptedFetcher{snap: testSnapshot()}
	l := New(Config{Store: st, Fetcher: fetcher, Logger: quietLogger()})
	defer l.Stop()

	l.RefetchAfter(5*time.Millisecond, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for fetcher.Fetches() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("refetches did not fire, fetches=%d", fetcher.Fetches())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopCancelsPendingRefetches(t *testing.T) {
	st := store.New()
	fetcher := &scriptedFetcher{snap: testSnapshot()}
	l := New(Config{Store: st, Fetcher: fetcher, Logger: quietLogger()})

	l.RefetchAfter(50 * time.Millisecond)
	l.Stop()

	time.Sleep(100 * time.Millisecond)
	if fetcher.Fetches() != 0 {
		t.Fatalf("refetch fired after Stop, fetches=%d", fetcher.Fetches())
	}
}
