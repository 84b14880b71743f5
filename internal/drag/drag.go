// Package drag turns a drag gesture over the list sidebar into exactly one
// optimistic move. Hovering the list a task already occupies never arms the
// drop, so releasing there produces zero mutations.
package drag

import "github.com/itellico/joi-console/internal/model"

// Mover is the single mutation the controller may issue.
type Mover interface {
	MoveList(id string, target model.List) bool
}

type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
	StateHovering State = "hovering"
)

type Controller struct {
	mover Mover

	state  State
	taskID string
	source model.List
	target model.List
}

func New(mover Mover) *Controller {
	return &Controller{mover: mover, state: StateIdle}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Dragging() (taskID string, ok bool) {
	if c.state == StateIdle {
		return "", false
	}
	return c.taskID, true
}

// Start begins a drag. Starting while another drag is active replaces it.
func (c *Controller) Start(taskID string, source model.List) {
	c.state = StateDragging
	c.taskID = taskID
	c.source = source
	c.target = ""
}

// Hover marks target droppable, except when it is the source list.
// Returns whether the hover armed a drop.
func (c *Controller) Hover(target model.List) bool {
	if c.state == StateIdle {
		return false
	}
	if target == c.source {
		c.state = StateDragging
		c.target = ""
		return false
	}
	c.state = StateHovering
	c.target = target
	return true
}

// Leave clears the droppable mark but keeps the drag alive.
func (c *Controller) Leave() {
	if c.state == StateHovering {
		c.state = StateDragging
		c.target = ""
	}
}

// Drop releases the drag, invoking the move exactly once if a droppable
// target is armed. Returns whether a mutation was issued.
func (c *Controller) Drop() bool {
	defer c.reset()
	if c.state != StateHovering {
		return false
	}
	return c.mover.MoveList(c.taskID, c.target)
}

// Cancel abandons the drag with no mutation.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.taskID = ""
	c.source = ""
	c.target = ""
}
