package workspace

import (
	"context"
	"fmt"

	"github.com/jward/zenls/internal/compile"
)

// EventKind classifies a document change.
type EventKind int

const (
	Created EventKind = iota
	Changed
	Deleted
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a document change. Changed events carry the whole new text; a nil
// Text means the file is read from disk.
type Event struct {
	Kind EventKind
	Path string
	Text *string
}

// Apply brings the owning environment up to date with ev. Events for files
// that are not sources are ignored. A change whose text hashes to the loaded
// unit's hash does not reload.
func (m *Manager) Apply(ctx context.Context, ev Event) error {
	if compile.Classify(ev.Path) == compile.NotSource {
		return nil
	}
	path := clean(ev.Path)

	if ev.Kind == Deleted {
		if _, err := m.Environment(path); err != nil {
			return nil
		}
		h, err := m.OpenForWrite(ctx, path)
		if err != nil {
			return err
		}
		defer h.Close()
		if h.Environment().RemoveUnit(path) {
			log.Debugf("removed %s", path)
		}
		return nil
	}

	var text string
	if ev.Kind == Changed && ev.Text != nil {
		text = *ev.Text
	} else {
		var err error
		if text, err = readFile(path); err != nil {
			return err
		}
	}
	u, err := compile.ParseUnit(path, text)
	if err != nil {
		return err
	}

	h, err := m.OpenForWrite(ctx, path)
	if err != nil {
		return err
	}
	defer h.Close()
	if old := h.Unit(); old != nil && old.Hash == u.Hash {
		return nil
	}
	env := h.Environment()
	env.AddUnit(u)
	log.Debugf("%s %s (generation %d)", ev.Kind, path, env.Generation())
	return nil
}
