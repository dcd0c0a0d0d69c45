package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAzaizeh/ChainFlow/internal/models"
)

func TestTaskCheckbox(t *testing.T) {
	f := NewFragments()

	html, err := f.TaskCheckbox(&models.Task{ID: "t1", Status: true})
	require.NoError(t, err)
	assert.Contains(t, html, `id="task-t1"`)
	assert.Contains(t, html, "checked")

	html, err = f.TaskCheckbox(&models.Task{ID: "t1"})
	require.NoError(t, err)
	assert.NotContains(t, html, "checked")
}

func TestSubtaskCheckbox(t *testing.T) {
	f := NewFragments()

	html, err := f.SubtaskCheckbox(&models.Subtask{ID: "s1", TaskID: "t1", Status: true})
	require.NoError(t, err)
	assert.Contains(t, html, `id="subtask-s1"`)
	assert.Contains(t, html, "/tasks/t1/subtasks/s1/toggle")
}

func TestTaskNoteFormEscapesNotes(t *testing.T) {
	f := NewFragments()

	html, err := f.TaskNoteForm(&models.Task{ID: "t1", Notes: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}
