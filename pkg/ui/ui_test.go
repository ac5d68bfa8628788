package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState(t *testing.T) {
	s := NewState()

	s.Show(DashboardPanel)
	s.Show(SignUpPanel)
	s.Hide(SignUpPanel)
	s.Show(ChildJoinPanel)
	assert.True(t, s.Visible(DashboardPanel))
	assert.False(t, s.Visible(SignUpPanel))
	assert.Equal(t, []Panel{ChildJoinPanel, DashboardPanel}, s.VisiblePanels())

	s.SetText(StatusLabel, "hello")
	assert.Equal(t, "hello", s.Text(StatusLabel))
	assert.Empty(t, s.Text(RosterLabel))

	tasks := []TaskEntry{{Title: "Dishes", Complete: true}}
	s.AddChild(ChildEntry{Name: "Kid1", Tasks: tasks})
	tasks[0].Title = "changed"
	s.AddChild(ChildEntry{Name: "Kid2"})
	assert.Equal(t, []string{"Kid1", "Kid2"}, s.ChildNames())
	assert.Equal(t, "Dishes", s.Children()[0].Tasks[0].Title)

	s.ClearChildren()
	assert.Empty(t, s.Children())
}

func TestTaskEntryString(t *testing.T) {
	assert.Equal(t, "[x] Dishes", TaskEntry{Title: "Dishes", Complete: true}.String())
	assert.Equal(t, "[ ] Homework", TaskEntry{Title: "Homework"}.String())
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)

	var screen Screen = c
	screen.Show(DashboardPanel)
	screen.SetText(StatusLabel, "Welcome back!")
	screen.ClearChildren()
	screen.AddChild(ChildEntry{Name: "Kid1", Tasks: []TaskEntry{{Title: "Dishes"}}})
	screen.Hide(DashboardPanel)

	assert.Equal(t, "[show] dashboard\n"+
		"[status] Welcome back!\n"+
		"[roster] cleared\n"+
		"  - Kid1\n"+
		"      [ ] Dishes\n"+
		"[hide] dashboard\n", out.String())
	assert.False(t, c.Visible(DashboardPanel))
	assert.Equal(t, []string{"Kid1"}, c.ChildNames())
}
