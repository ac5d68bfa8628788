package ui

import (
	"sort"
	"sync"

	"golang.org/x/exp/maps"
)

// State is an in-memory Screen that can be inspected afterwards.
type State struct {
	mu       sync.Mutex
	visible  map[Panel]bool
	text     map[Label]string
	children []ChildEntry
}

func NewState() *State {
	return &State{
		visible: map[Panel]bool{},
		text:    map[Label]string{},
	}
}

func (s *State) Show(panel Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[panel] = true
}

func (s *State) Hide(panel Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visible, panel)
}

func (s *State) SetText(label Label, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text[label] = text
}

func (s *State) ClearChildren() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = nil
}

func (s *State) AddChild(entry ChildEntry) {
	entry.Tasks = append([]TaskEntry(nil), entry.Tasks...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, entry)
}

func (s *State) Visible(panel Panel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[panel]
}

// VisiblePanels returns the shown panels in name order.
func (s *State) VisiblePanels() []Panel {
	s.mu.Lock()
	panels := maps.Keys(s.visible)
	s.mu.Unlock()

	sort.Slice(panels, func(i, j int) bool {
		return panels[i] < panels[j]
	})
	return panels
}

func (s *State) Text(label Label) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text[label]
}

func (s *State) Children() []ChildEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChildEntry(nil), s.children...)
}

// ChildNames returns the names of the rendered roster rows in order.
func (s *State) ChildNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.children))
	for _, c := range s.children {
		names = append(names, c.Name)
	}
	return names
}
