package ui

import (
	"fmt"
	"io"
	"sync"
)

// Console is a State that also writes every change to out.
type Console struct {
	*State

	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{
		State: NewState(),
		out:   out,
	}
}

func (c *Console) Show(panel Panel) {
	c.State.Show(panel)
	c.printf("[show] %s\n", panel)
}

func (c *Console) Hide(panel Panel) {
	c.State.Hide(panel)
	c.printf("[hide] %s\n", panel)
}

func (c *Console) SetText(label Label, text string) {
	c.State.SetText(label, text)
	c.printf("[%s] %s\n", label, text)
}

func (c *Console) ClearChildren() {
	c.State.ClearChildren()
	c.printf("[roster] cleared\n")
}

func (c *Console) AddChild(entry ChildEntry) {
	c.State.AddChild(entry)

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "  - %s\n", entry.Name)
	for _, task := range entry.Tasks {
		fmt.Fprintf(c.out, "      %s\n", task)
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
