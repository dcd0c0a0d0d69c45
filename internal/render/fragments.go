package render

import (
	"html/template"
	"strings"

	"github.com/WAzaizeh/ChainFlow/internal/models"
)

// Fragments renders the HTML snippets that the browser-side library
// swaps into the page, both for direct responses and for push updates.
// Rendering is a pure function of domain state.
type Fragments struct {
	taskCheckbox    *template.Template
	subtaskCheckbox *template.Template
	taskNoteForm    *template.Template
}

func NewFragments() *Fragments {
	return &Fragments{
		taskCheckbox: template.Must(template.New("task_checkbox").Parse(
			`<input type="checkbox" id="task-{{.ID}}" name="task-{{.ID}}"` +
				` hx-post="/api/v1/tasks/{{.ID}}/toggle" hx-swap="outerHTML"` +
				`{{if .Status}} checked{{end}}>`)),
		subtaskCheckbox: template.Must(template.New("subtask_checkbox").Parse(
			`<input type="checkbox" id="subtask-{{.ID}}" name="subtask-{{.ID}}"` +
				` hx-post="/api/v1/tasks/{{.TaskID}}/subtasks/{{.ID}}/toggle" hx-swap="outerHTML"` +
				`{{if .Status}} checked{{end}}>`)),
		taskNoteForm: template.Must(template.New("task_note_form").Parse(
			`<form id="note-{{.ID}}" hx-post="/api/v1/tasks/{{.ID}}/note" hx-swap="outerHTML">` +
				`<textarea name="note">{{.Notes}}</textarea>` +
				`<button type="submit">Save</button></form>`)),
	}
}

func (f *Fragments) TaskCheckbox(task *models.Task) (string, error) {
	return execute(f.taskCheckbox, task)
}

func (f *Fragments) SubtaskCheckbox(subtask *models.Subtask) (string, error) {
	return execute(f.subtaskCheckbox, subtask)
}

func (f *Fragments) TaskNoteForm(task *models.Task) (string, error) {
	return execute(f.taskNoteForm, task)
}

func execute(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	err := t.Execute(&sb, data)
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
