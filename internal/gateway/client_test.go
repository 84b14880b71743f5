package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestFetchAllFlattensLists(t *testing.T) {
	payload := `{
		"tasks": {
			"inbox": [{"id":"task-1","title":"Call Bob","index":0}],
			"today": [{"id":"task-2","title":"Buy milk","projectId":"proj-1","projectTitle":"Errands",
				"checklist":[{"id":"chk-1","title":"skim","completed":true},{"id":"chk-2","title":"oat"}],
				"index":0}]
		},
		"counts": {"inbox":1,"today":1},
		"projects": [{"id":"proj-1","title":"Errands","taskCount":1}],
		"areas": [{"id":"area-1","title":"Home"}],
		"headings": [{"id":"head-1","title":"Soon","projectId":"proj-1"}],
		"tags": ["errand"]
	}`
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/things/all" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, payload)
	}))

	snap, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(snap.Tasks))
	}
	var milk, bob bool
	for _, task := range snap.Tasks {
		switch task.ID {
		case "task-1":
			bob = true
			if string(task.List) != "inbox" {
				t.Fatalf("task-1 list = %s", task.List)
			}
		case "task-2":
			milk = true
			if string(task.List) != "today" {
				t.Fatalf("task-2 list = %s", task.List)
			}
			if task.ChecklistTotal != 2 || task.ChecklistDone != 1 {
				t.Fatalf("counters not derived: done=%d total=%d", task.ChecklistDone, task.ChecklistTotal)
			}
		}
	}
	if !milk || !bob {
		t.Fatalf("missing flattened tasks: %+v", snap.Tasks)
	}
	if len(snap.Projects) != 1 || len(snap.Areas) != 1 || len(snap.Headings) != 1 || len(snap.Tags) != 1 {
		t.Fatalf("tables not decoded: %+v", snap)
	}
}

func TestFetchAllMalformedTableDegradesToEmpty(t *testing.T) {
	payload := `{
		"tasks": {
			"today": [{"id":"task-1","title":"ok","index":0}],
			"inbox": {"not":"an array"}
		},
		"projects": "garbage",
		"areas": [{"id":"area-1","title":"Home"}]
	}`
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))

	snap, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll must tolerate malformed tables, got %v", err)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].ID != "task-1" {
		t.Fatalf("well-formed table lost: %+v", snap.Tasks)
	}
	if snap.Projects != nil {
		t.Fatalf("malformed projects table should be empty: %+v", snap.Projects)
	}
	if len(snap.Areas) != 1 {
		t.Fatalf("areas table lost")
	}
}

func TestFetchAllTransportErrorReturnsError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	if _, err := c.FetchAll(context.Background()); !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestFetchLogbookPassesLimit(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/things/logbook" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit = %q", got)
		}
		io.WriteString(w, `[{"id":"done-1","title":"Old"}]`)
	}))

	entries, err := c.FetchLogbook(context.Background(), 25)
	if err != nil {
		t.Fatalf("FetchLogbook: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "done-1" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestMutationPostsBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"ok":true}`)
	}))

	title := "Buy milk"
	if err := c.UpdateTask(context.Background(), "task-1", UpdatePayload{Title: &title}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if gotPath != "/api/things/update" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotBody["id"] != "task-1" || gotBody["title"] != "Buy milk" {
		t.Fatalf("body = %v", gotBody)
	}
	if _, ok := gotBody["notes"]; ok {
		t.Fatalf("unchanged field serialized: %v", gotBody)
	}
}

func TestProjectAndAreaMutations(t *testing.T) {
	var paths []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		io.WriteString(w, `{"ok":true}`)
	}))

	ctx := context.Background()
	if err := c.CreateProject(ctx, "Trip", "area-1"); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := c.CreateArea(ctx, "Home"); err != nil {
		t.Fatalf("CreateArea: %v", err)
	}
	if err := c.UpdateProjectNotes(ctx, "proj-1", "packing list"); err != nil {
		t.Fatalf("UpdateProjectNotes: %v", err)
	}
	if err := c.DeleteProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	want := []string{
		"/api/things/create-project",
		"/api/things/create-area",
		"/api/things/update-project",
		"/api/things/delete-project",
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("path[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestMutationEnvelopeError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":false,"error":"task is locked"}`)
	}))
	err := c.Complete(context.Background(), "task-1")
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestUpdatePayloadEmpty(t *testing.T) {
	if !(UpdatePayload{}).Empty() {
		t.Fatalf("zero payload must be empty")
	}
	s := "x"
	if (UpdatePayload{Notes: &s}).Empty() {
		t.Fatalf("payload with notes must not be empty")
	}
}
