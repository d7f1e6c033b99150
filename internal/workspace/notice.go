package workspace

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notice is a user-facing message about an environment.
type Notice struct {
	Level   Level
	Root    string
	Message string
}

// Notifier receives notices. It is called with the manager lock held and
// must not call back into the manager.
type Notifier func(Notice)
