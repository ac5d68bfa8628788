package ui

type Panel string

const (
	SignUpPanel        Panel = "signup"
	SignInPanel        Panel = "signin"
	DashboardPanel     Panel = "dashboard"
	ChildJoinPanel     Panel = "child-join"
	ChildMainPanel     Panel = "child-main"
	DeleteConfirmPanel Panel = "delete-confirmation"
)

type Label string

const (
	StatusLabel   Label = "status"
	JoinCodeLabel Label = "join-code"
	RosterLabel   Label = "roster"
)

type TaskEntry struct {
	Title    string
	Complete bool
}

func (t TaskEntry) String() string {
	if t.Complete {
		return "[x] " + t.Title
	}
	return "[ ] " + t.Title
}

// ChildEntry is one rendered roster row with its nested task rows.
type ChildEntry struct {
	Name  string
	Tasks []TaskEntry
}

// Screen is the surface the client controllers draw on.
type Screen interface {
	Show(panel Panel)
	Hide(panel Panel)
	SetText(label Label, text string)
	ClearChildren()
	AddChild(entry ChildEntry)
}
