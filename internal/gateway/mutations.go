package gateway

import (
	"context"

	"github.com/itellico/joi-console/internal/model"
)

// UpdatePayload carries only the fields that actually changed; nil pointers
// are omitted from the request body.
type UpdatePayload struct {
	Title    *string   `json:"title,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	When     *string   `json:"when,omitempty"`
	Deadline *string   `json:"deadline,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

func (p UpdatePayload) Empty() bool {
	return p.Title == nil && p.Notes == nil && p.When == nil && p.Deadline == nil && p.Tags == nil
}

type CreateTaskPayload struct {
	Title     string   `json:"title"`
	Notes     string   `json:"notes,omitempty"`
	When      string   `json:"when,omitempty"`
	ProjectID string   `json:"projectId,omitempty"`
	AreaID    string   `json:"areaId,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type idBody struct {
	ID string `json:"id"`
}

type itemBody struct {
	ID     string `json:"id"`
	ItemID string `json:"itemId"`
}

func (c *Client) Complete(ctx context.Context, id string) error {
	return c.post(ctx, "/api/things/complete", idBody{ID: id})
}

func (c *Client) Uncomplete(ctx context.Context, id string) error {
	return c.post(ctx, "/api/things/uncomplete", idBody{ID: id})
}

func (c *Client) UpdateTask(ctx context.Context, id string, p UpdatePayload) error {
	body := struct {
		ID string `json:"id"`
		UpdatePayload
	}{ID: id, UpdatePayload: p}
	return c.post(ctx, "/api/things/update", body)
}

func (c *Client) MoveList(ctx context.Context, id string, list model.List) error {
	body := struct {
		ID   string `json:"id"`
		List string `json:"list"`
	}{ID: id, List: string(list)}
	return c.post(ctx, "/api/things/move-list", body)
}

func (c *Client) MoveProject(ctx context.Context, id, projectID, headingID string) error {
	body := struct {
		ID        string `json:"id"`
		ProjectID string `json:"projectId"`
		HeadingID string `json:"headingId,omitempty"`
	}{ID: id, ProjectID: projectID, HeadingID: headingID}
	return c.post(ctx, "/api/things/move-project", body)
}

func (c *Client) Duplicate(ctx context.Context, id string) error {
	return c.post(ctx, "/api/things/duplicate", idBody{ID: id})
}

func (c *Client) ConvertToProject(ctx context.Context, id string) error {
	return c.post(ctx, "/api/things/convert-to-project", idBody{ID: id})
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.post(ctx, "/api/things/delete", idBody{ID: id})
}

func (c *Client) AppendChecklist(ctx context.Context, id, title string) error {
	body := struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}{ID: id, Title: title}
	return c.post(ctx, "/api/things/checklist-append", body)
}

func (c *Client) ToggleChecklistItem(ctx context.Context, id, itemID string) error {
	return c.post(ctx, "/api/things/checklist-item-toggle", itemBody{ID: id, ItemID: itemID})
}

func (c *Client) DeleteChecklistItem(ctx context.Context, id, itemID string) error {
	return c.post(ctx, "/api/things/checklist-item-delete", itemBody{ID: id, ItemID: itemID})
}

func (c *Client) CreateTask(ctx context.Context, p CreateTaskPayload) error {
	return c.post(ctx, "/api/things/create-task", p)
}

func (c *Client) CreateProject(ctx context.Context, title, areaID string) error {
	body := struct {
		Title  string `json:"title"`
		AreaID string `json:"areaId,omitempty"`
	}{Title: title, AreaID: areaID}
	return c.post(ctx, "/api/things/create-project", body)
}

func (c *Client) CreateArea(ctx context.Context, title string) error {
	body := struct {
		Title string `json:"title"`
	}{Title: title}
	return c.post(ctx, "/api/things/create-area", body)
}

func (c *Client) UpdateProjectNotes(ctx context.Context, id, notes string) error {
	body := struct {
		ID    string `json:"id"`
		Notes string `json:"notes"`
	}{ID: id, Notes: notes}
	return c.post(ctx, "/api/things/update-project", body)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.post(ctx, "/api/things/delete-project", idBody{ID: id})
}
