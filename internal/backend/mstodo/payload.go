package mstodo

import "github.com/go-faster/jx"

// TaskPayload builds the JSON body of a task creation request. It starts
// from the required title; each With step attaches its field only when a
// value is present, so absent fields are omitted rather than sent as null.
type TaskPayload struct {
	title string
	steps []func(e *jx.Encoder)
}

// NewTaskPayload starts a payload for title.
func NewTaskPayload(title string) *TaskPayload {
	return &TaskPayload{title: title}
}

// WithBody attaches an HTML note.
func (p *TaskPayload) WithBody(content string) *TaskPayload {
	if content == "" {
		return p
	}
	p.steps = append(p.steps, func(e *jx.Encoder) {
		e.Field("body", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("content", func(e *jx.Encoder) { e.Str(content) })
				e.Field("contentType", func(e *jx.Encoder) { e.Str("html") })
			})
		})
	})
	return p
}

// WithDue attaches a due date interpreted by the provider in zone.
func (p *TaskPayload) WithDue(dateTime, zone string) *TaskPayload {
	if dateTime == "" {
		return p
	}
	p.steps = append(p.steps, func(e *jx.Encoder) {
		e.Field("dueDateTime", func(e *jx.Encoder) { dateTimeTimeZone(e, dateTime, zone) })
	})
	return p
}

// WithReminder attaches a reminder interpreted by the provider in zone.
// Graph ignores reminderDateTime unless isReminderOn is set.
func (p *TaskPayload) WithReminder(dateTime, zone string) *TaskPayload {
	if dateTime == "" {
		return p
	}
	p.steps = append(p.steps, func(e *jx.Encoder) {
		e.Field("isReminderOn", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("reminderDateTime", func(e *jx.Encoder) { dateTimeTimeZone(e, dateTime, zone) })
	})
	return p
}

// Encode renders the payload as compact JSON.
func (p *TaskPayload) Encode() []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("title", func(e *jx.Encoder) { e.Str(p.title) })
		for _, step := range p.steps {
			step(e)
		}
	})
	return e.Bytes()
}

func dateTimeTimeZone(e *jx.Encoder, dateTime, zone string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("dateTime", func(e *jx.Encoder) { e.Str(dateTime) })
		e.Field("timeZone", func(e *jx.Encoder) { e.Str(zone) })
	})
}
