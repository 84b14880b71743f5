package view

import (
	"testing"

	"github.com/itellico/joi-console/internal/model"
)

func TestSearchMatchesTitleAndTags(t *testing.T) {
	snap := model.Snapshot{
		Tasks: []model.Task{
			{ID: "t-1", Title: "Buy milk", List: model.ListToday},
			{ID: "t-2", Title: "Call Bob", List: model.ListInbox, Tags: []string{"calls"}},
		},
	}

	res := Search("bob", snap)
	if len(res.Active) != 1 || res.Active[0].ID != "t-2" {
		t.Fatalf(`search("bob") = %+v, want exactly t-2`, res.Active)
	}

	res = Search("call", snap)
	if len(res.Active) != 1 || res.Active[0].ID != "t-2" {
		t.Fatalf(`search("call") = %+v, want exactly t-2`, res.Active)
	}

	res = Search("calls", snap)
	if len(res.Active) != 1 || res.Active[0].ID != "t-2" {
		t.Fatalf("tag match failed: %+v", res.Active)
	}
}

func TestSearchSpansDenormalizedTitles(t *testing.T) {
	snap := model.Snapshot{
		Tasks: []model.Task{
			{ID: "t-1", Title: "Paint wall", List: model.ListSomeday, ProjectTitle: "Renovation"},
			{ID: "t-2", Title: "Water plants", List: model.ListToday, AreaTitle: "Garden"},
			{ID: "t-3", Title: "Order tiles", List: model.ListToday, HeadingTitle: "Bathroom"},
		},
		Completed: []model.CompletedTask{
			{ID: "d-1", Title: "Sand floor", ProjectTitle: "Renovation"},
		},
	}

	res := Search("renovation", snap)
	if len(res.Active) != 1 || res.Active[0].ID != "t-1" {
		t.Fatalf("project-title match wrong: %+v", res.Active)
	}
	if len(res.Completed) != 1 || res.Completed[0].ID != "d-1" {
		t.Fatalf("completed match wrong: %+v", res.Completed)
	}
	if res := Search("garden", snap); len(res.Active) != 1 || res.Active[0].ID != "t-2" {
		t.Fatalf("area-title match wrong")
	}
	if res := Search("bathroom", snap); len(res.Active) != 1 || res.Active[0].ID != "t-3" {
		t.Fatalf("heading-title match wrong")
	}
}

func TestSearchGroupsByBucketInFixedOrder(t *testing.T) {
	snap := model.Snapshot{
		Tasks: []model.Task{
			{ID: "t-some", Title: "note x", List: model.ListSomeday},
			{ID: "t-inbox", Title: "note y", List: model.ListInbox},
			{ID: "t-today", Title: "note z", List: model.ListToday},
		},
	}
	res := Search("note", snap)
	if len(res.ByList) != 3 {
		t.Fatalf("groups = %d, want 3", len(res.ByList))
	}
	wantOrder := []model.List{model.ListInbox, model.ListToday, model.ListSomeday}
	for i, want := range wantOrder {
		if res.ByList[i].List != want {
			t.Fatalf("group[%d] = %s, want %s", i, res.ByList[i].List, want)
		}
	}
}

func TestSearchIgnoresTransientAndEmptyQuery(t *testing.T) {
	snap := model.Snapshot{
		Tasks:     []model.Task{{ID: "t-1", Title: "Going away", List: model.ListToday, Completing: true}},
		Completed: []model.CompletedTask{{ID: "d-1", Title: "Coming back", Uncompleting: true}},
	}
	if res := Search("ing", snap); len(res.Active) != 0 || len(res.Completed) != 0 {
		t.Fatalf("transient records matched: %+v", res)
	}
	if res := Search("   ", snap); len(res.Active) != 0 {
		t.Fatalf("blank query matched")
	}
}
