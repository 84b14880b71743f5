// Package view is the pure read side of the tracker: it composes one store
// snapshot into ordered display sections, and searches the whole snapshot.
// Nothing here mutates state, so composing twice over the same snapshot
// yields identical output.
package view

import (
	"sort"

	"github.com/itellico/joi-console/internal/model"
)

type SelectionKind string

const (
	SelectList    SelectionKind = "list"
	SelectLogbook SelectionKind = "logbook"
	SelectArea    SelectionKind = "area"
	SelectProject SelectionKind = "project"
)

type Selection struct {
	Kind      SelectionKind
	List      model.List
	AreaID    string
	ProjectID string
}

func ListSelection(l model.List) Selection { return Selection{Kind: SelectList, List: l} }
func AreaSelection(id string) Selection    { return Selection{Kind: SelectArea, AreaID: id} }
func ProjectSelection(id string) Selection { return Selection{Kind: SelectProject, ProjectID: id} }
func LogbookSelection() Selection          { return Selection{Kind: SelectLogbook} }

// Section is one named (or unlabeled) ordered group of tasks.
type Section struct {
	Key       string                `json:"key"`
	Title     string                `json:"title,omitempty"`
	Labeled   bool                  `json:"labeled"`
	ProjectID string                `json:"projectId,omitempty"`
	TaskCount int                   `json:"taskCount,omitempty"`
	Tasks     []model.Task          `json:"tasks"`
	Completed []model.CompletedTask `json:"completed,omitempty"`
}

// Compose turns a snapshot plus a selection into ordered sections. Section
// order is deterministic: first-seen insertion order everywhere a map would
// otherwise leak iteration order.
func Compose(snap model.Snapshot, sel Selection) []Section {
	switch sel.Kind {
	case SelectList:
		return composeList(snap, sel.List)
	case SelectArea:
		return composeArea(snap, sel.AreaID)
	case SelectProject:
		return composeProject(snap, sel.ProjectID)
	case SelectLogbook:
		return composeLogbook(snap)
	default:
		return nil
	}
}

func composeList(snap model.Snapshot, list model.List) []Section {
	var standalone []model.Task
	areaOrder := []string{}
	areaTasks := map[string][]model.Task{}
	areaTitles := map[string]string{}
	areaProjects := map[string][]string{}
	projectOrder := []string{} // projects with no area
	projectTasks := map[string][]model.Task{}
	projectTitles := map[string]string{}
	seenProject := map[string]bool{}

	for _, t := range snap.Tasks {
		if t.List != list || t.Completing {
			continue
		}
		switch {
		case t.ProjectID != "":
			pid := t.ProjectID
			if !seenProject[pid] {
				seenProject[pid] = true
				projectTitles[pid] = t.ProjectTitle
				areaID := projectAreaID(snap, pid, t)
				if areaID != "" {
					if _, ok := areaTasks[areaID]; !ok && !containsString(areaOrder, areaID) {
						areaOrder = append(areaOrder, areaID)
						areaTitles[areaID] = areaTitleFor(snap, areaID, t.AreaTitle)
					}
					areaProjects[areaID] = append(areaProjects[areaID], pid)
				} else {
					projectOrder = append(projectOrder, pid)
				}
			}
			projectTasks[pid] = append(projectTasks[pid], t)
		case t.AreaID != "":
			if !containsString(areaOrder, t.AreaID) {
				areaOrder = append(areaOrder, t.AreaID)
				areaTitles[t.AreaID] = areaTitleFor(snap, t.AreaID, t.AreaTitle)
			}
			areaTasks[t.AreaID] = append(areaTasks[t.AreaID], t)
		default:
			standalone = append(standalone, t)
		}
	}

	var out []Section
	if len(standalone) > 0 {
		out = append(out, Section{Key: "standalone", Tasks: sortTasks(standalone)})
	}
	for _, areaID := range areaOrder {
		out = append(out, Section{
			Key:     "area:" + areaID,
			Title:   areaTitles[areaID],
			Labeled: true,
			Tasks:   sortTasks(areaTasks[areaID]),
		})
		for _, pid := range areaProjects[areaID] {
			out = append(out, projectSection(snap, pid, projectTitles[pid], projectTasks[pid]))
		}
	}
	for _, pid := range projectOrder {
		out = append(out, projectSection(snap, pid, projectTitles[pid], projectTasks[pid]))
	}
	return out
}

func projectSection(snap model.Snapshot, pid, fallbackTitle string, tasks []model.Task) Section {
	title := fallbackTitle
	count := 0
	if p, ok := snap.FindProject(pid); ok {
		title = p.Title
		count = p.TaskCount
	}
	return Section{
		Key:       "project:" + pid,
		Title:     title,
		Labeled:   true,
		ProjectID: pid,
		TaskCount: count,
		Tasks:     sortTasks(tasks),
	}
}

func composeArea(snap model.Snapshot, areaID string) []Section {
	var out []Section

	projects := make([]model.Project, 0)
	for _, p := range snap.Projects {
		if p.AreaID == areaID {
			projects = append(projects, p)
		}
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].Index < projects[j].Index })
	for _, p := range projects {
		out = append(out, Section{
			Key:       "project:" + p.ID,
			Title:     p.Title,
			Labeled:   true,
			ProjectID: p.ID,
			TaskCount: p.TaskCount,
			Tasks:     []model.Task{},
		})
	}

	var ungrouped []model.Task
	for _, t := range snap.Tasks {
		if t.Completing || t.AreaID != areaID || t.ProjectID != "" {
			continue
		}
		ungrouped = append(ungrouped, t)
	}
	if len(ungrouped) > 0 {
		sec := Section{Key: "area-tasks:" + areaID, Tasks: sortTasks(ungrouped)}
		if len(projects) > 0 {
			sec.Title = "No Project"
			sec.Labeled = true
		}
		out = append(out, sec)
	}
	return out
}

func composeProject(snap model.Snapshot, projectID string) []Section {
	var noHeading []model.Task
	byTitle := map[string][]model.Task{}
	titleOrder := []string{}

	for _, t := range snap.Tasks {
		if t.Completing || t.ProjectID != projectID {
			continue
		}
		if t.HeadingTitle == "" {
			noHeading = append(noHeading, t)
			continue
		}
		if _, ok := byTitle[t.HeadingTitle]; !ok {
			titleOrder = append(titleOrder, t.HeadingTitle)
		}
		byTitle[t.HeadingTitle] = append(byTitle[t.HeadingTitle], t)
	}

	var out []Section
	out = append(out, Section{Key: "no-heading", Tasks: sortTasks(noHeading)})

	// Registered headings always render, even with zero tasks.
	headings := make([]model.Heading, 0)
	for _, h := range snap.Headings {
		if h.ProjectID == projectID {
			headings = append(headings, h)
		}
	}
	sort.SliceStable(headings, func(i, j int) bool { return headings[i].Index < headings[j].Index })

	covered := map[string]bool{}
	for _, h := range headings {
		covered[h.Title] = true
		out = append(out, Section{
			Key:     "heading:" + h.ID,
			Title:   h.Title,
			Labeled: true,
			Tasks:   sortTasks(byTitle[h.Title]),
		})
	}

	// Ad-hoc headings: titles observed on tasks with no registered Heading
	// row. Keyed by title string, first-seen, each exactly once.
	for _, title := range titleOrder {
		if covered[title] {
			continue
		}
		out = append(out, Section{
			Key:     "adhoc:" + title,
			Title:   title,
			Labeled: true,
			Tasks:   sortTasks(byTitle[title]),
		})
	}
	return out
}

func composeLogbook(snap model.Snapshot) []Section {
	entries := make([]model.CompletedTask, 0, len(snap.Completed))
	for _, c := range snap.Completed {
		if c.Uncompleting {
			continue
		}
		entries = append(entries, c)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CompletedAt.After(entries[j].CompletedAt) })
	return []Section{{Key: "logbook", Title: "Logbook", Labeled: true, Completed: entries}}
}

func projectAreaID(snap model.Snapshot, projectID string, t model.Task) string {
	if p, ok := snap.FindProject(projectID); ok {
		return p.AreaID
	}
	// Project row missing from this generation; fall back to the task's own
	// area reference.
	return t.AreaID
}

func areaTitleFor(snap model.Snapshot, areaID, fallback string) string {
	if a, ok := snap.FindArea(areaID); ok {
		return a.Title
	}
	return fallback
}

func sortTasks(tasks []model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if out == nil {
		out = []model.Task{}
	}
	return out
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
