package view

import (
	"strings"

	"github.com/itellico/joi-console/internal/model"
)

// Result is a total-store search hit set. Unlike Compose, search ignores the
// current selection scope on purpose.
type Result struct {
	Active    []model.Task          `json:"active"`
	ByList    []ListGroup           `json:"byList"`
	Completed []model.CompletedTask `json:"completed"`
}

type ListGroup struct {
	List  model.List   `json:"list"`
	Tasks []model.Task `json:"tasks"`
}

// Search matches a case-insensitive substring against title, notes, project
// title, area title, heading title, and each tag; any field match qualifies
// the record. Active hits are additionally grouped by bucket in fixed bucket
// order for display.
func Search(query string, snap model.Snapshot) Result {
	q := strings.ToLower(strings.TrimSpace(query))
	res := Result{Active: []model.Task{}, Completed: []model.CompletedTask{}}
	if q == "" {
		return res
	}

	for _, t := range snap.Tasks {
		if t.Completing {
			continue
		}
		if taskMatches(t, q) {
			res.Active = append(res.Active, t)
		}
	}
	for _, c := range snap.Completed {
		if c.Uncompleting {
			continue
		}
		if anyContains(q, c.Title, c.ProjectTitle, c.AreaTitle) {
			res.Completed = append(res.Completed, c)
		}
	}

	for _, list := range model.Lists() {
		var group []model.Task
		for _, t := range res.Active {
			if t.List == list {
				group = append(group, t)
			}
		}
		if len(group) > 0 {
			res.ByList = append(res.ByList, ListGroup{List: list, Tasks: sortTasks(group)})
		}
	}
	return res
}

func taskMatches(t model.Task, q string) bool {
	if anyContains(q, t.Title, t.Notes, t.ProjectTitle, t.AreaTitle, t.HeadingTitle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func anyContains(q string, fields ...string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
