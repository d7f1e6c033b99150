// Package lsp serves an Engine over the Language Server Protocol. It only
// translates: positions, URIs and result shapes are converted here and every
// question is answered by the Engine's queries.
package lsp

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/jward/zenls"
)

var log = commonlog.GetLogger("zenls.lsp")

// Name is reported to clients in the initialize result.
const Name = "zenls"

// Version is reported to clients in the initialize result.
var Version = "dev"

// Server is a language server over one Engine.
type Server struct {
	engine  *zenls.Engine
	handler protocol.Handler
	docs    *documents

	mu     sync.Mutex
	notify glsp.NotifyFunc
}

// NewServer creates a server and its Engine. The Engine's notices are
// forwarded to the client as window/showMessage.
func NewServer(opts ...zenls.Option) *Server {
	s := &Server{docs: newDocuments()}
	s.engine = zenls.New(append(opts, zenls.WithNotifier(s.showNotice))...)
	s.handler = protocol.Handler{
		Initialize:                         s.initialize,
		Initialized:                        s.initialized,
		Shutdown:                           s.shutdown,
		SetTrace:                           s.setTrace,
		TextDocumentDidOpen:                s.didOpen,
		TextDocumentDidChange:              s.didChange,
		TextDocumentDidClose:               s.didClose,
		WorkspaceDidChangeWatchedFiles:     s.didChangeWatchedFiles,
		WorkspaceDidChangeWorkspaceFolders: s.didChangeWorkspaceFolders,
		TextDocumentCompletion:             s.completion,
		TextDocumentHover:                  s.hover,
		TextDocumentSignatureHelp:          s.signatureHelp,
		TextDocumentDefinition:             s.definition,
		TextDocumentSemanticTokensFull:     s.semanticTokensFull,
		TextDocumentDocumentSymbol:         s.documentSymbol,
	}
	return s
}

// Engine returns the server's Engine.
func (s *Server) Engine() *zenls.Engine { return s.engine }

// RunStdio serves requests on stdin and stdout until the client exits.
func (s *Server) RunStdio() error {
	log.Info("starting language server on stdio")
	return server.NewServer(&s.handler, Name, false).RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.setNotify(ctx.Notify)

	var roots []string
	for _, f := range params.WorkspaceFolders {
		roots = append(roots, uriToPath(f.URI))
	}
	if len(roots) == 0 && params.RootURI != nil {
		roots = append(roots, uriToPath(*params.RootURI))
	}
	for _, root := range roots {
		log.Infof("workspace %s", root)
		s.engine.AddWorkspace(root)
	}

	return protocol.InitializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &Version,
		},
	}, nil
}

func (s *Server) capabilities() protocol.ServerCapabilities {
	caps := s.handler.CreateServerCapabilities()
	caps.TextDocumentSync = protocol.TextDocumentSyncKindFull
	caps.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "<", ":"},
	}
	caps.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters: []string{"(", ","},
	}
	caps.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     zenls.TokenTypes,
			TokenModifiers: zenls.TokenModifiers,
		},
		Full: true,
	}
	supported := true
	caps.Workspace = &protocol.ServerCapabilitiesWorkspace{
		WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
			Supported:           &supported,
			ChangeNotifications: &protocol.BoolOrString{Value: true},
		},
	}
	return caps
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.setNotify(ctx.Notify)
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) setNotify(fn glsp.NotifyFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// send delivers a notification to the client, if one is connected.
func (s *Server) send(method string, params any) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

// showNotice runs with the workspace lock held, so it only sends.
func (s *Server) showNotice(n zenls.Notice) {
	typ := protocol.MessageTypeInfo
	switch n.Level {
	case zenls.LevelWarning:
		typ = protocol.MessageTypeWarning
	case zenls.LevelError:
		typ = protocol.MessageTypeError
	}
	log.Noticef("%s: %s", n.Root, n.Message)
	s.send(protocol.ServerWindowShowMessage, protocol.ShowMessageParams{
		Type:    typ,
		Message: n.Root + ": " + n.Message,
	})
}

// background is the context for engine calls. glsp handlers carry no
// request context.
func background() context.Context { return context.Background() }
