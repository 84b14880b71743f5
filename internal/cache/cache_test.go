package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/itellico/joi-console/internal/model"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "snapshot.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestLoadEmpty(t *testing.T) {
	c := testCache(t)
	if _, err := c.Load(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	fetched := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	snap := model.Snapshot{
		Tasks: []model.Task{
			{ID: "task-1", Title: "Call Bob", List: model.ListToday, Tags: []string{"phone"}},
			{ID: "task-2", Title: "Pack bags", List: model.ListUpcoming, ProjectID: "proj-1"},
		},
		Projects:  []model.Project{{ID: "proj-1", Title: "Trip", TaskCount: 1}},
		Areas:     []model.Area{{ID: "area-1", Title: "Home"}},
		Headings:  []model.Heading{{ID: "head-1", Title: "Before", ProjectID: "proj-1"}},
		Completed: []model.CompletedTask{{ID: "done-1", Title: "Old", CompletedAt: fetched.Add(-time.Hour)}},
		Tags:      []string{"phone"},
		FetchedAt: fetched,
	}
	if err := c.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].ID != "task-1" || got.Tasks[1].ID != "task-2" {
		t.Fatalf("tasks = %+v", got.Tasks)
	}
	if got.Tasks[0].Tags[0] != "phone" {
		t.Fatalf("task tags lost: %+v", got.Tasks[0])
	}
	if len(got.Projects) != 1 || got.Projects[0].TaskCount != 1 {
		t.Fatalf("projects = %+v", got.Projects)
	}
	if len(got.Areas) != 1 || len(got.Headings) != 1 || len(got.Completed) != 1 {
		t.Fatalf("tables lost: %+v", got)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Fatalf("fetchedAt = %v, want %v", got.FetchedAt, fetched)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "phone" {
		t.Fatalf("tags = %+v", got.Tags)
	}
}

func TestSaveSkipsTransientEntries(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	snap := model.Snapshot{
		Tasks: []model.Task{
			{ID: "task-1", Title: "Keep", List: model.ListToday},
			{ID: "task-2", Title: "Vanishing", List: model.ListToday, Completing: true},
		},
		Completed: []model.CompletedTask{
			{ID: "done-1", Title: "Keep", CompletedAt: time.Now()},
			{ID: "done-2", Title: "Vanishing", CompletedAt: time.Now(), Uncompleting: true},
		},
		FetchedAt: time.Now().UTC(),
	}
	if err := c.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "task-1" {
		t.Fatalf("completing task persisted: %+v", got.Tasks)
	}
	if len(got.Completed) != 1 || got.Completed[0].ID != "done-1" {
		t.Fatalf("uncompleting entry persisted: %+v", got.Completed)
	}
}

func TestSaveReplacesPreviousGeneration(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	first := model.Snapshot{
		Tasks:     []model.Task{{ID: "task-1", Title: "Old", List: model.ListInbox}},
		FetchedAt: time.Now().UTC(),
	}
	if err := c.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second := model.Snapshot{
		Tasks:     []model.Task{{ID: "task-2", Title: "New", List: model.ListToday}},
		FetchedAt: time.Now().UTC(),
	}
	if err := c.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "task-2" {
		t.Fatalf("stale rows survived: %+v", got.Tasks)
	}
}
