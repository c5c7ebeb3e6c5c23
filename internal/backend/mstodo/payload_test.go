package mstodo_test

import (
	"testing"

	"quicktask/internal/backend/mstodo"
)

func TestTaskPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload *mstodo.TaskPayload
		want    string
	}{
		{
			name:    "title only",
			payload: mstodo.NewTaskPayload("Buy milk"),
			want:    `{"title":"Buy milk"}`,
		},
		{
			name:    "empty body omitted",
			payload: mstodo.NewTaskPayload("Buy milk").WithBody(""),
			want:    `{"title":"Buy milk"}`,
		},
		{
			name:    "body as html",
			payload: mstodo.NewTaskPayload("Buy milk").WithBody("note"),
			want:    `{"title":"Buy milk","body":{"content":"note","contentType":"html"}}`,
		},
		{
			name:    "absent dates omitted",
			payload: mstodo.NewTaskPayload("Buy milk").WithDue("", "UTC").WithReminder("", "UTC"),
			want:    `{"title":"Buy milk"}`,
		},
		{
			name:    "due date with zone",
			payload: mstodo.NewTaskPayload("Buy milk").WithDue("2026-06-01T00:00:00", "Europe/Berlin"),
			want:    `{"title":"Buy milk","dueDateTime":{"dateTime":"2026-06-01T00:00:00","timeZone":"Europe/Berlin"}}`,
		},
		{
			name:    "reminder switches reminder on",
			payload: mstodo.NewTaskPayload("Buy milk").WithReminder("2026-06-01T08:30:00", "UTC"),
			want:    `{"title":"Buy milk","isReminderOn":true,"reminderDateTime":{"dateTime":"2026-06-01T08:30:00","timeZone":"UTC"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.payload.Encode()); got != tt.want {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}
