package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flynesis-planner/internal/datetime"
	"flynesis-planner/internal/domain"
)

// ErrTitleRequired is returned when a draft has a blank title.
var ErrTitleRequired = errors.New("title is required")

// TaskInput is raw user input for a task. Empty fields take defaults, or
// keep the edited task's values.
type TaskInput struct {
	Title    string
	Priority string
	Tag      string
	Due      string
	// ClearTag and ClearDue drop the edited task's tag or due date.
	ClearTag bool
	ClearDue bool
}

// TaskService turns user input into tasks ready for saving.
type TaskService struct {
	now func() time.Time
}

func NewTaskService() *TaskService {
	return &TaskService{now: time.Now}
}

// Draft builds the task to save. Editing keeps the existing id, status and
// creation time; a new task gets a placeholder id, status Todo and the
// current time.
func (s *TaskService) Draft(input TaskInput, existing *domain.Task) (domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" && existing != nil {
		title = existing.Title
	}
	if title == "" {
		return domain.Task{}, ErrTitleRequired
	}

	priority := domain.PriorityMedium
	if existing != nil {
		priority = existing.Priority
	}
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		p, ok := domain.ParsePriority(raw)
		if !ok {
			return domain.Task{}, fmt.Errorf("unknown priority %q", raw)
		}
		priority = p
	}

	due := strings.TrimSpace(input.Due)
	if due != "" {
		if _, err := datetime.ParseISO(due, time.UTC); err != nil {
			return domain.Task{}, err
		}
	}

	tag := strings.TrimPrefix(strings.TrimSpace(input.Tag), "#")
	if existing != nil {
		if tag == "" && !input.ClearTag {
			tag = existing.Tag
		}
		if due == "" && !input.ClearDue {
			due = existing.DueISO
		}
	}

	now := s.now()
	task := domain.Task{
		ID:           domain.NewPlaceholderID(domain.TaskPrefix, now),
		Title:        title,
		Status:       domain.StatusTodo,
		Priority:     priority,
		Tag:          tag,
		DueISO:       due,
		CreatedAtISO: domain.FormatTimestamp(now),
	}
	if existing != nil {
		task.ID = existing.ID
		if existing.Status != "" {
			task.Status = existing.Status
		}
		if existing.CreatedAtISO != "" {
			task.CreatedAtISO = existing.CreatedAtISO
		}
	}
	return task, nil
}

// Overdue reports whether an open task's due date is before ref's date.
func Overdue(task domain.Task, ref time.Time) bool {
	if task.DueISO == "" || task.Status == domain.StatusDone {
		return false
	}
	return task.DueISO < datetime.DateISO(ref)
}
