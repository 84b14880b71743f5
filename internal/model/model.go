package model

import "time"

// List is one of the five mutually exclusive top-level task buckets.
type List string

const (
	ListInbox    List = "inbox"
	ListToday    List = "today"
	ListUpcoming List = "upcoming"
	ListAnytime  List = "anytime"
	ListSomeday  List = "someday"
)

// Lists returns all buckets in fixed display order.
func Lists() []List {
	return []List{ListInbox, ListToday, ListUpcoming, ListAnytime, ListSomeday}
}

// ParseList maps a symbolic bucket name to a List. Date-based "when" values
// ("2026-09-01", "evening", ...) do not map and return ok=false.
func ParseList(s string) (List, bool) {
	switch List(s) {
	case ListInbox, ListToday, ListUpcoming, ListAnytime, ListSomeday:
		return List(s), true
	default:
		return "", false
	}
}

type ChecklistItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Index     int    `json:"index"`
}

type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
	List  List   `json:"list"`

	ProjectID string `json:"projectId,omitempty"`
	HeadingID string `json:"headingId,omitempty"`
	AreaID    string `json:"areaId,omitempty"`

	// Denormalized display names supplied by the remote payload. HeadingTitle
	// may name a heading with no registered Heading row (ad-hoc heading).
	ProjectTitle string `json:"projectTitle,omitempty"`
	AreaTitle    string `json:"areaTitle,omitempty"`
	HeadingTitle string `json:"headingTitle,omitempty"`

	Tags      []string        `json:"tags,omitempty"`
	Checklist []ChecklistItem `json:"checklist,omitempty"`

	// Denormalized counters; the store keeps them equal to the checklist.
	ChecklistTotal int `json:"checklistTotal"`
	ChecklistDone  int `json:"checklistDone"`

	StartDate string    `json:"startDate,omitempty"` // YYYY-MM-DD
	Deadline  string    `json:"deadline,omitempty"`  // YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt"`
	Index     int       `json:"index"`

	// Completing marks the transient local state between an optimistic
	// complete and its local removal. Never sent on the wire.
	Completing bool `json:"-"`
}

type Project struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	AreaID string `json:"areaId,omitempty"`

	// TaskCount counts the project's open tasks. It is remote-computed and
	// allowed to drift locally between reconciliations.
	TaskCount int `json:"taskCount"`
	Index     int `json:"index"`
}

type Area struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Index int    `json:"index"`
}

// Heading is a named sub-group inside exactly one Project. It does not own
// tasks structurally; a zero-task heading still renders.
type Heading struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ProjectID string `json:"projectId"`
	Index     int    `json:"index"`
}

// CompletedTask is an append-only logbook entry. It is created on completion
// and removed on un-completion, never mutated.
type CompletedTask struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ProjectTitle string    `json:"projectTitle,omitempty"`
	AreaTitle    string    `json:"areaTitle,omitempty"`
	CompletedAt  time.Time `json:"completedAt"`

	Uncompleting bool `json:"-"`
}

// Snapshot is one generation of the replicated tables. The store swaps whole
// snapshots; readers never see a half-updated generation.
type Snapshot struct {
	Tasks     []Task          `json:"tasks"`
	Projects  []Project       `json:"projects"`
	Areas     []Area          `json:"areas"`
	Headings  []Heading       `json:"headings"`
	Completed []CompletedTask `json:"completed"`
	Tags      []string        `json:"tags,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

func (s Snapshot) FindTask(id string) (*Task, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

func (s Snapshot) FindProject(id string) (*Project, bool) {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i], true
		}
	}
	return nil, false
}

func (s Snapshot) FindArea(id string) (*Area, bool) {
	for i := range s.Areas {
		if s.Areas[i].ID == id {
			return &s.Areas[i], true
		}
	}
	return nil, false
}

func (s Snapshot) FindHeading(id string) (*Heading, bool) {
	for i := range s.Headings {
		if s.Headings[i].ID == id {
			return &s.Headings[i], true
		}
	}
	return nil, false
}
