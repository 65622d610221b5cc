package planner

import (
	"context"
	"strings"

	"flynesis-planner/internal/domain"
)

// Board is the task board: one column per status, each in board order.
type Board struct {
	Todo  []domain.Task
	Doing []domain.Task
	Done  []domain.Task
}

func (b Board) Column(status domain.TaskStatus) []domain.Task {
	switch status {
	case domain.StatusDoing:
		return b.Doing
	case domain.StatusDone:
		return b.Done
	default:
		return b.Todo
	}
}

func (b Board) Len() int { return len(b.Todo) + len(b.Doing) + len(b.Done) }

// Board groups tasks by status. A non-empty query keeps tasks whose title
// or tag contains it, ignoring case.
func (c *Controller) Board(query string) Board {
	q := strings.ToLower(strings.TrimSpace(query))
	var b Board
	for _, t := range c.Tasks() {
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Tag), q) {
			continue
		}
		switch t.Status {
		case domain.StatusDoing:
			b.Doing = append(b.Doing, t)
		case domain.StatusDone:
			b.Done = append(b.Done, t)
		default:
			b.Todo = append(b.Todo, t)
		}
	}
	return b
}

// MoveTask changes a task's status through the store.
func (c *Controller) MoveTask(ctx context.Context, id string, status domain.TaskStatus) (domain.Task, bool) {
	task, ok := c.Task(id)
	if !ok {
		return domain.Task{}, false
	}
	if task.Status == status {
		return task, true
	}
	task.Status = status
	return c.SaveTask(ctx, task)
}

// ReorderTask moves a task directly before overID within the same column.
// The order lives in memory only and is lost on reload; tasks carry no
// persisted position.
func (c *Controller) ReorderTask(id, overID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	moved, ok := c.tasks.Get(id)
	if !ok {
		return false
	}
	over, ok := c.tasks.Get(overID)
	if !ok || over.Status != moved.Status {
		return false
	}
	return c.tasks.MoveBefore(id, overID)
}
