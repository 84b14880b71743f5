package gateway

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/itellico/joi-console/internal/model"
)

// allPayload is the /api/things/all wire shape. Every table is kept raw and
// decoded independently so one malformed table degrades to empty instead of
// discarding the whole fetch (partial backend outages stay renderable).
type allPayload struct {
	Tasks    map[string]json.RawMessage `json:"tasks"`
	Counts   map[string]int             `json:"counts"`
	Projects json.RawMessage            `json:"projects"`
	Areas    json.RawMessage            `json:"areas"`
	Headings json.RawMessage            `json:"headings"`
	Tags     json.RawMessage            `json:"tags"`
}

type wireTask struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Notes        string                `json:"notes"`
	ProjectID    string                `json:"projectId"`
	HeadingID    string                `json:"headingId"`
	AreaID       string                `json:"areaId"`
	ProjectTitle string                `json:"projectTitle"`
	AreaTitle    string                `json:"areaTitle"`
	HeadingTitle string                `json:"headingTitle"`
	Tags         []string              `json:"tags"`
	Checklist    []model.ChecklistItem `json:"checklist"`
	StartDate    string                `json:"startDate"`
	Deadline     string                `json:"deadline"`
	CreatedAt    time.Time             `json:"createdAt"`
	Index        int                   `json:"index"`
}

// FetchAll retrieves the full entity set and flattens the per-list task
// groups into one snapshot.
func (c *Client) FetchAll(ctx context.Context) (model.Snapshot, error) {
	var payload allPayload
	if err := c.get(ctx, "/api/things/all", nil, &payload); err != nil {
		return model.Snapshot{}, err
	}

	snap := model.Snapshot{FetchedAt: time.Now().UTC()}
	for _, list := range model.Lists() {
		raw, ok := payload.Tasks[string(list)]
		if !ok {
			continue
		}
		var wires []wireTask
		if err := json.Unmarshal(raw, &wires); err != nil {
			c.logger.Printf("malformed %s task table, treating as empty: %v", list, err)
			continue
		}
		for _, w := range wires {
			snap.Tasks = append(snap.Tasks, taskFromWire(w, list))
		}
	}

	decodeTable(c, "projects", payload.Projects, &snap.Projects)
	decodeTable(c, "areas", payload.Areas, &snap.Areas)
	decodeTable(c, "headings", payload.Headings, &snap.Headings)
	decodeTable(c, "tags", payload.Tags, &snap.Tags)
	return snap, nil
}

// FetchLogbook retrieves up to limit completed tasks, newest first.
func (c *Client) FetchLogbook(ctx context.Context, limit int) ([]model.CompletedTask, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.CompletedTask
	if err := c.get(ctx, "/api/things/logbook", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeTable[T any](c *Client, name string, raw json.RawMessage, out *[]T) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Printf("malformed %s table, treating as empty: %v", name, err)
		*out = nil
	}
}

func taskFromWire(w wireTask, list model.List) model.Task {
	t := model.Task{
		ID:           w.ID,
		Title:        w.Title,
		Notes:        w.Notes,
		List:         list,
		ProjectID:    w.ProjectID,
		HeadingID:    w.HeadingID,
		AreaID:       w.AreaID,
		ProjectTitle: w.ProjectTitle,
		AreaTitle:    w.AreaTitle,
		HeadingTitle: w.HeadingTitle,
		Tags:         w.Tags,
		Checklist:    w.Checklist,
		StartDate:    w.StartDate,
		Deadline:     w.Deadline,
		CreatedAt:    w.CreatedAt,
		Index:        w.Index,
	}
	done := 0
	for _, it := range t.Checklist {
		if it.Completed {
			done++
		}
	}
	t.ChecklistTotal = len(t.Checklist)
	t.ChecklistDone = done
	return t
}
