// Package console exposes the tracker core to the rendering layer: compose,
// search, fire-and-forget mutations, and a store-changed subscription, both
// in-process and over a thin localhost HTTP/WebSocket surface.
package console

import (
	"encoding/json"
	"fmt"

	"github.com/itellico/joi-console/internal/gateway"
	"github.com/itellico/joi-console/internal/model"
	"github.com/itellico/joi-console/internal/mutate"
	"github.com/itellico/joi-console/internal/store"
	"github.com/itellico/joi-console/internal/view"
)

type Console struct {
	store  *store.Store
	engine *mutate.Engine
}

func New(st *store.Store, engine *mutate.Engine) *Console {
	return &Console{store: st, engine: engine}
}

func (c *Console) Sections(sel view.Selection) []view.Section {
	return view.Compose(c.store.Snapshot(), sel)
}

func (c *Console) Search(query string) view.Result {
	return view.Search(query, c.store.Snapshot())
}

func (c *Console) Logbook() []view.Section {
	return view.Compose(c.store.Snapshot(), view.LogbookSelection())
}

// Subscribe delivers coalesced store-changed signals for re-render triggers.
func (c *Console) Subscribe() (<-chan struct{}, func()) {
	return c.store.Subscribe()
}

func (c *Console) Engine() *mutate.Engine { return c.engine }

// Mutate dispatches a kind+payload envelope to the engine. Unknown kinds and
// malformed payloads are the only errors; remote failures stay fire-and-
// forget per the optimistic contract.
func (c *Console) Mutate(kind string, payload json.RawMessage) error {
	switch kind {
	case "complete":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.Complete(p.ID)
	case "uncomplete":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.Uncomplete(p.ID)
	case "update":
		var p struct {
			ID       string    `json:"id"`
			Title    *string   `json:"title"`
			Notes    *string   `json:"notes"`
			When     *string   `json:"when"`
			Deadline *string   `json:"deadline"`
			Tags     *[]string `json:"tags"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.Update(p.ID, mutate.Fields{
			Title:    p.Title,
			Notes:    p.Notes,
			When:     p.When,
			Deadline: p.Deadline,
			Tags:     p.Tags,
		})
	case "move-list":
		var p struct {
			ID   string `json:"id"`
			List string `json:"list"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		list, ok := model.ParseList(p.List)
		if !ok {
			return fmt.Errorf("console: unknown list %q", p.List)
		}
		c.engine.MoveList(p.ID, list)
	case "move-project":
		var p struct {
			ID        string `json:"id"`
			ProjectID string `json:"projectId"`
			HeadingID string `json:"headingId"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.MoveProject(p.ID, p.ProjectID, p.HeadingID)
	case "checklist-toggle":
		var p struct {
			ID     string `json:"id"`
			ItemID string `json:"itemId"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.ToggleChecklistItem(p.ID, p.ItemID)
	case "checklist-delete":
		var p struct {
			ID     string `json:"id"`
			ItemID string `json:"itemId"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.DeleteChecklistItem(p.ID, p.ItemID)
	case "checklist-append":
		var p struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.AppendChecklistItem(p.ID, p.Title)
	case "create-task":
		var p gateway.CreateTaskPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.CreateTask(p)
	case "duplicate":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.Duplicate(p.ID)
	case "convert-to-project":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.ConvertToProject(p.ID)
	case "delete":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		c.engine.Delete(p.ID)
	default:
		return fmt.Errorf("console: unknown mutation kind %q", kind)
	}
	return nil
}
