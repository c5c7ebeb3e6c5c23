package service

import "strings"

// WellknownDefaultList marks the list that is pre-selected for new tasks.
const WellknownDefaultList = "defaultList"

// TaskList represents a task container as reported by the provider.
type TaskList struct {
	ID                string
	DisplayName       string
	WellknownListName string
	IsOwner           bool
	IsShared          bool
}

// IsDefault reports whether l is the user's default list.
func (l TaskList) IsDefault() bool {
	return l.WellknownListName == WellknownDefaultList
}

// CreateTaskRequest is the input for CreateTask.
// Empty optional fields are left out of the provider payload.
type CreateTaskRequest struct {
	ListID           string
	Title            string
	Body             string
	DueDateTime      string
	ReminderDateTime string
}

// Validate checks the request locally.
func (r CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.ListID == "" {
		return ErrListRequired
	}
	return nil
}
