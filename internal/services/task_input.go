package services

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

// CreateTaskInput represents input for creating a task. The owner is never
// read from the body.
type CreateTaskInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=1000"`
	Status      models.TaskStatus   `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority    models.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category    string              `json:"category" validate:"max=50"`
	DueDate     *time.Time          `json:"dueDate"`
	Tags        []string            `json:"tags" validate:"max=20,dive,max=50"`
}

func (in *CreateTaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Tags = normalizeTags(in.Tags)
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		in.DueDate = &due
	}
}

// OptionalTime tells an absent JSON field apart from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// NullTime returns an OptionalTime that clears the stored value.
func NullTime() OptionalTime {
	return OptionalTime{Set: true}
}

// SomeTime returns an OptionalTime holding t.
func SomeTime(t time.Time) OptionalTime {
	t = t.UTC()
	return OptionalTime{Set: true, Value: &t}
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	t = t.UTC()
	o.Value = &t
	return nil
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// TaskPatch is the allow-list of task fields a client may change. Fields
// left nil are untouched.
type TaskPatch struct {
	Title       *string              `json:"title" validate:"omitnil,max=200"`
	Description *string              `json:"description" validate:"omitnil,max=1000"`
	Status      *models.TaskStatus   `json:"status" validate:"omitnil,oneof=pending in-progress completed cancelled"`
	Priority    *models.TaskPriority `json:"priority" validate:"omitnil,oneof=low medium high urgent"`
	Category    *string              `json:"category" validate:"omitnil,max=50"`
	DueDate     OptionalTime         `json:"dueDate"`
	Tags        *[]string            `json:"tags" validate:"omitnil,max=20,dive,max=50"`
}

// IsEmpty reports whether the patch names no field at all.
func (p *TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.Priority == nil &&
		p.Category == nil &&
		!p.DueDate.Set &&
		p.Tags == nil
}

// Normalize trims text fields and cleans up the tag list.
func (p *TaskPatch) Normalize() {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		p.Category = &category
	}
	if p.Tags != nil {
		tags := normalizeTags(*p.Tags)
		p.Tags = &tags
	}
}

// Validate returns *validation.Errors listing every invalid field.
func (p *TaskPatch) Validate() error {
	errs := &validation.Errors{}
	errs.Merge(validation.Struct(p))
	if p.Title != nil && *p.Title == "" && !errs.Has("title") {
		errs.Add("title", "title cannot be empty")
	}
	return errs.Err()
}

// ApplyTo copies the patch onto task and reports whether any stored value
// changed. Moving into completed stamps CompletedAt with now; moving out of
// it clears CompletedAt.
func (p *TaskPatch) ApplyTo(task *models.Task, now time.Time) bool {
	changed := false

	if p.Title != nil && *p.Title != task.Title {
		task.Title = *p.Title
		changed = true
	}
	if p.Description != nil && *p.Description != task.Description {
		task.Description = *p.Description
		changed = true
	}
	if p.Priority != nil && *p.Priority != task.Priority {
		task.Priority = *p.Priority
		changed = true
	}
	if p.Category != nil && *p.Category != task.Category {
		task.Category = *p.Category
		changed = true
	}
	if p.Status != nil && *p.Status != task.Status {
		wasCompleted := task.Status == models.TaskStatusCompleted
		task.Status = *p.Status
		switch {
		case task.Status == models.TaskStatusCompleted:
			completedAt := now.UTC()
			task.CompletedAt = &completedAt
		case wasCompleted:
			task.CompletedAt = nil
		}
		changed = true
	}
	if p.DueDate.Set && !sameTime(task.DueDate, p.DueDate.Value) {
		if p.DueDate.Value == nil {
			task.DueDate = nil
		} else {
			due := p.DueDate.Value.UTC()
			task.DueDate = &due
		}
		changed = true
	}
	if p.Tags != nil && !slices.Equal(task.TagNames(), *p.Tags) {
		task.Tags = toTaskTags(*p.Tags)
		changed = true
	}

	return changed
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// normalizeTags trims every tag, drops empty ones and keeps the first
// occurrence of duplicates.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}

	return result
}

func toTaskTags(names []string) []models.TaskTag {
	tags := make([]models.TaskTag, len(names))
	for i, name := range names {
		tags[i] = models.TaskTag{Name: name, Position: i}
	}
	return tags
}

// ListTasksQuery holds the raw list options from the query string.
type ListTasksQuery struct {
	Status          string `form:"status" json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority        string `form:"priority" json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category        string `form:"category" json:"category" validate:"max=50"`
	Search          string `form:"search" json:"search" validate:"max=200"`
	SortBy          string `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=createdAt updatedAt dueDate priority status title"`
	SortOrder       string `form:"sortOrder" json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	IncludeArchived string `form:"includeArchived" json:"includeArchived" validate:"omitempty,oneof=true false 1 0"`
}

// StatsQuery holds the raw stats options from the query string.
type StatsQuery struct {
	Timezone        string `form:"timezone" json:"timezone"`
	IncludeArchived string `form:"includeArchived" json:"includeArchived" validate:"omitempty,oneof=true false 1 0"`
}

func truthy(s string) bool {
	return s == "true" || s == "1"
}

// BulkUpdateInput applies one patch to many tasks.
type BulkUpdateInput struct {
	TaskIDs []uint64  `json:"taskIds"`
	Updates TaskPatch `json:"updates"`
}

// SuggestTasksInput carries the free text suggestions are extracted from.
type SuggestTasksInput struct {
	Text string `json:"text" validate:"required,max=5000"`
}
