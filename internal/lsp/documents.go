package lsp

import (
	"sort"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/zenls"
)

// documents tracks the text of the documents open in the client.
type documents struct {
	mu   sync.Mutex
	text map[string]string
}

func newDocuments() *documents {
	return &documents{text: make(map[string]string)}
}

func (d *documents) set(path, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text[path] = text
}

func (d *documents) get(path string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.text[path]
	return text, ok
}

func (d *documents) remove(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.text, path)
}

// paths returns the open documents, sorted.
func (d *documents) paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.text))
	for p := range d.text {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// Text synchronization
// =============================================================================

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	s.docs.set(path, params.TextDocument.Text)
	return s.applyText(path, params.TextDocument.Text)
}

// didChange accepts whole-document changes and ranged edits. Ranged edits
// are spliced into the last known text.
func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	text, _ := s.docs.get(path)
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text = c.Text
				continue
			}
			start := offsetOf(text, c.Range.Start)
			end := offsetOf(text, c.Range.End)
			text = text[:start] + c.Text + text[end:]
		}
	}
	s.docs.set(path, text)
	return s.applyText(path, text)
}

// didClose drops the editor's text; the unit is reloaded from disk.
func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	s.docs.remove(path)
	if err := s.engine.Apply(background(), zenls.Event{Kind: zenls.Changed, Path: path}); err != nil {
		log.Debugf("reload %s after close: %s", path, err)
	}
	s.publishOpen()
	return nil
}

func (s *Server) didChangeWatchedFiles(_ *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, change := range params.Changes {
		path := uriToPath(change.URI)
		if _, open := s.docs.get(path); open && change.Type != protocol.FileChangeTypeDeleted {
			continue
		}
		ev := zenls.Event{Kind: zenls.Changed, Path: path}
		switch change.Type {
		case protocol.FileChangeTypeCreated:
			ev.Kind = zenls.Created
		case protocol.FileChangeTypeDeleted:
			ev.Kind = zenls.Deleted
		}
		if err := s.engine.Apply(background(), ev); err != nil {
			log.Warningf("%s %s: %s", ev.Kind, path, err)
		}
	}
	s.publishOpen()
	return nil
}

func (s *Server) didChangeWorkspaceFolders(_ *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	for _, f := range params.Event.Removed {
		s.engine.RemoveWorkspace(uriToPath(f.URI))
	}
	for _, f := range params.Event.Added {
		s.engine.AddWorkspace(uriToPath(f.URI))
	}
	return nil
}

func (s *Server) applyText(path, text string) error {
	if err := s.engine.Apply(background(), zenls.Event{Kind: zenls.Changed, Path: path, Text: &text}); err != nil {
		log.Errorf("apply %s: %s", path, err)
		return err
	}
	s.publishOpen()
	return nil
}

// publishOpen sends diagnostics for every open document. A reload can
// change what any unit of the environment resolves to.
func (s *Server) publishOpen() {
	for _, path := range s.docs.paths() {
		diags, err := s.engine.Query().Diagnostics(background(), path)
		if err != nil {
			log.Debugf("diagnostics %s: %s", path, err)
			continue
		}
		s.send(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         pathToURI(path),
			Diagnostics: toDiagnostics(diags),
		})
	}
}

// offsetOf converts a protocol position to a byte offset in text, clamped
// to the text.
func offsetOf(text string, p protocol.Position) int {
	off := 0
	for line := protocol.UInteger(0); line < p.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	end := len(text)
	if nl := strings.IndexByte(text[off:], '\n'); nl >= 0 {
		end = off + nl
	}
	return min(off+int(p.Character), end)
}
