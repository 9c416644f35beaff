package models

import (
	"fmt"
	"time"
)

// TodoStatus is a closed enumeration. Values outside the four known
// states are rejected by ParseTodoStatus at the boundary.
type TodoStatus string

const (
	StatusPending    TodoStatus = "pending"
	StatusInProgress TodoStatus = "in_progress"
	StatusCompleted  TodoStatus = "completed"
	StatusCancelled  TodoStatus = "cancelled"
)

// TodoStatuses lists every status in wire order.
var TodoStatuses = []TodoStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func ParseTodoStatus(s string) (TodoStatus, error) {
	status := TodoStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

func (s TodoStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s TodoStatus) String() string { return string(s) }

// TodoPriority is a closed enumeration.
type TodoPriority string

const (
	PriorityLow    TodoPriority = "low"
	PriorityMedium TodoPriority = "medium"
	PriorityHigh   TodoPriority = "high"
	PriorityUrgent TodoPriority = "urgent"
)

// TodoPriorities lists every priority in wire order.
var TodoPriorities = []TodoPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

func ParseTodoPriority(s string) (TodoPriority, error) {
	priority := TodoPriority(s)
	if !priority.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return priority, nil
}

func (p TodoPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (p TodoPriority) String() string { return string(p) }

// Todo is owned by exactly one user. Status is the canonical completion
// field; IsCompleted is derived from it, never stored.
type Todo struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Status      TodoStatus
	Priority    TodoPriority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Todo) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// SetCompleted reconciles Status with the requested completion state.
// Completing always sets StatusCompleted; un-completing a completed todo
// reverts it to StatusPending and leaves any other status alone.
func (t *Todo) SetCompleted(completed bool) {
	if completed {
		t.Status = StatusCompleted
		return
	}
	if t.Status == StatusCompleted {
		t.Status = StatusPending
	}
}
