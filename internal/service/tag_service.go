package service

import (
	"context"
	"sort"
	"strings"

	"flynesis-planner/internal/domain"
)

// TagCount is a tag and how many open tasks carry it.
type TagCount struct {
	Tag   string
	Count int
}

// TaskSource lists an account's tasks.
type TaskSource interface {
	Tasks(ctx context.Context, flyID string) []domain.Task
}

// TagService provides helpers around task tags.
type TagService struct {
	tasks TaskSource
}

func NewTagService(tasks TaskSource) *TagService {
	return &TagService{tasks: tasks}
}

// List returns the tags used by open tasks, case-insensitively merged and
// sorted by name.
func (s *TagService) List(ctx context.Context, flyID string) []TagCount {
	return CountTags(s.tasks.Tasks(ctx, flyID))
}

func CountTags(tasks []domain.Task) []TagCount {
	counts := make(map[string]*TagCount)
	for _, t := range tasks {
		tag := strings.TrimSpace(t.Tag)
		if tag == "" || t.Status == domain.StatusDone {
			continue
		}
		key := strings.ToLower(tag)
		if c, ok := counts[key]; ok {
			c.Count++
			continue
		}
		counts[key] = &TagCount{Tag: tag, Count: 1}
	}
	out := make([]TagCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Tag) < strings.ToLower(out[j].Tag)
	})
	return out
}
