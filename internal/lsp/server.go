package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"missingkeys/internal/config"
	"missingkeys/internal/engine"
	"missingkeys/internal/keycache"
	"missingkeys/internal/trace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

const (
	commandToggle = "missingKeys.toggle"
	commandRun    = "missingKeys.run"

	methodActiveDocument = "missingKeys/didChangeActiveDocument"

	defaultDebounce = 300 * time.Millisecond
)

// RunFunc performs one comparison cycle.
type RunFunc func(ctx context.Context, p engine.Provider, req engine.Request) (*engine.Result, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	// Settings seeds the configuration before initialize; nil uses config.Default.
	Settings *config.Settings
	Run      RunFunc
	Cache    *keycache.Cache
	Tracer   trace.Tracer
	Log      io.Writer
	Version  string
}

// Server handles stdio JSON-RPC for the missing-keys language server.
type Server struct {
	in        *bufio.Reader
	out       *bufio.Writer
	sendMu    sync.Mutex
	mu        sync.Mutex
	openDocs  map[string]string
	versions  map[string]int
	active    string
	published map[string]struct{}

	workspaceRoot     string
	settings          config.Settings
	base              config.Settings
	configured        bool
	shutdownRequested bool
	debounce          time.Duration
	baseDebounce      time.Duration
	debounceTimer     *time.Timer
	diagCancel        context.CancelFunc
	analysisSeq       uint64
	latestSeq         uint64
	run               RunFunc
	cache             *keycache.Cache
	tracer            trace.Tracer
	log               io.Writer
	version           string
	baseCtx           context.Context
	traceLSP          bool
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	runFn := opts.Run
	if runFn == nil {
		runFn = engine.Run
	}
	settings := config.Default()
	configured := false
	if opts.Settings != nil {
		settings = *opts.Settings
		configured = true
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	logw := opts.Log
	if logw == nil {
		logw = os.Stderr
	}
	return &Server{
		in:           bufio.NewReader(in),
		out:          bufio.NewWriter(out),
		openDocs:     make(map[string]string),
		versions:     make(map[string]int),
		published:    make(map[string]struct{}),
		settings:     settings,
		base:         settings,
		configured:   configured,
		debounce:     debounce,
		baseDebounce: debounce,
		run:          runFn,
		cache:        opts.Cache,
		tracer:       tracer,
		log:          logw,
		version:      opts.Version,
		baseCtx:      context.Background(),
	}
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	defer s.stopPending()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case methodActiveDocument:
		return s.handleActiveDocument(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	configured := s.configured
	s.mu.Unlock()

	if !configured {
		s.loadWorkspaceConfig(root)
	}
	if len(params.InitializationOptions) > 0 {
		if err := s.applySettings(params.InitializationOptions); err != nil {
			s.logf("initializationOptions: %v", err)
		}
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{commandToggle, commandRun},
			},
		},
		ServerInfo: &serverInfo{Name: "missingkeys", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopPending()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.mu.Unlock()
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	text := applyChanges(s.openDocs[uri], params.ContentChanges)
	s.openDocs[uri] = text
	oldVersion := s.versions[uri]
	s.versions[uri] = params.TextDocument.Version
	traceLSP := s.traceLSP
	s.mu.Unlock()
	if traceLSP {
		s.logf("didChange: uri=%s version=%d->%d", uri, oldVersion, params.TextDocument.Version)
	}
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	if params.Text != nil {
		s.openDocs[uri] = *params.Text
	}
	version := s.versions[uri]
	traceLSP := s.traceLSP
	s.mu.Unlock()
	if traceLSP {
		s.logf("didSave: uri=%s version=%d", uri, version)
	}
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	if s.active == uri {
		s.active = ""
	}
	_, hadDiagnostics := s.published[uri]
	delete(s.published, uri)
	s.mu.Unlock()
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	s.scheduleDiagnostics()
	return nil
}

func (s *Server) handleActiveDocument(msg *rpcMessage) error {
	var params activeDocumentParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return nil
		}
	}
	uri := canonicalURI(params.URI)
	s.mu.Lock()
	changed := s.active != uri
	s.active = uri
	s.mu.Unlock()
	if changed {
		s.scheduleDiagnostics()
	}
	return nil
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	return s.send(publishMessage(uri, list))
}

// publishIfLatest sends diagnostics only while seq is the newest cycle. The
// check and the write both happen under sendMu, so a cycle that lost the race
// cannot write after a newer one.
func (s *Server) publishIfLatest(seq uint64, uri string, list []lspDiagnostic) (bool, error) {
	payload, err := json.Marshal(publishMessage(uri, list))
	if err != nil {
		return false, err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.isLatestSeq(seq) {
		return false, nil
	}
	return true, s.writeLocked(payload)
}

func publishMessage(uri string, list []lspDiagnostic) map[string]any {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
}

// message types of window/showMessage
const (
	messageError   = 1
	messageWarning = 2
)

func (s *Server) showMessage(kind int, text string) {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "window/showMessage",
		"params":  showMessageParams{Type: kind, Message: text},
	}
	if err := s.send(msg); err != nil {
		s.logf("failed to show message: %v", err)
	}
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.writeLocked(payload)
}

// writeLocked frames and flushes one payload. Callers hold sendMu.
func (s *Server) writeLocked(payload []byte) error {
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.log, "lsp: "+format+"\n", args...)
}

func (s *Server) isLatestSeq(seq uint64) bool {
	if seq == 0 {
		return false
	}
	return seq == atomic.LoadUint64(&s.latestSeq)
}
