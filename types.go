package zenls

import (
	"github.com/jward/zenls/internal/bracket"
	"github.com/jward/zenls/internal/syntax"
	"github.com/jward/zenls/internal/workspace"
)

// Public type aliases for internal types used in the Engine and
// QueryBuilder API. External consumers use these names; no conversion is
// needed.

type Position = syntax.Position
type Range = syntax.Range
type Event = workspace.Event
type EventKind = workspace.EventKind
type Notice = workspace.Notice
type Notifier = workspace.Notifier
type BracketService = bracket.Service
type BracketEntry = bracket.Entry

// Document change kinds.
const (
	Created = workspace.Created
	Changed = workspace.Changed
	Deleted = workspace.Deleted
)

// Notice levels.
const (
	LevelInfo    = workspace.LevelInfo
	LevelWarning = workspace.LevelWarning
	LevelError   = workspace.LevelError
)
