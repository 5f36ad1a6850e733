package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"missingkeys/internal/config"
	"missingkeys/internal/engine"
)

type testWorkspace struct {
	dir    string
	refURI string
	cmpURI string
	ref    string
	cmp    string
}

func newTestWorkspace(t *testing.T, ref, cmp string) testWorkspace {
	t.Helper()
	dir := t.TempDir()
	refPath := filepath.Join(dir, "en.json")
	cmpPath := filepath.Join(dir, "de.json")
	if err := os.WriteFile(refPath, []byte(ref), 0o600); err != nil {
		t.Fatalf("write reference: %v", err)
	}
	if err := os.WriteFile(cmpPath, []byte(cmp), 0o600); err != nil {
		t.Fatalf("write compare: %v", err)
	}
	return testWorkspace{dir: dir, refURI: pathToURI(refPath), cmpURI: pathToURI(cmpPath), ref: ref, cmp: cmp}
}

func newTestServer(t *testing.T, ws testWorkspace, out io.Writer, runFn RunFunc) *Server {
	t.Helper()
	settings := config.Default()
	settings.ReferencePath = "en.json"
	settings.ComparePath = "de.json"
	server := NewServer(bytes.NewReader(nil), out, ServerOptions{
		Debounce: time.Hour,
		Settings: &settings,
		Run:      runFn,
		Log:      io.Discard,
	})
	server.workspaceRoot = ws.dir
	return server
}

func call(t *testing.T, server *Server, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal %s: %v", method, err)
	}
	if err := server.handleMessage(&rpcMessage{Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func request(t *testing.T, server *Server, method string, params any) {
	t.Helper()
	payload, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal %s: %v", method, err)
	}
	if err := server.handleMessage(&rpcMessage{ID: json.RawMessage(`1`), Method: method, Params: payload}); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func openDoc(t *testing.T, server *Server, uri, text string) {
	t.Helper()
	call(t, server, "textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: text},
	})
}

// flush stops the debounce timer and runs the pending cycle synchronously.
func flush(server *Server) {
	server.mu.Lock()
	if server.debounceTimer != nil {
		server.debounceTimer.Stop()
	}
	server.mu.Unlock()
	server.runDiagnostics(atomic.LoadUint64(&server.latestSeq))
}

func readAll(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	var msgs []rpcMessage
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		msgs = append(msgs, msg)
	}
	out.Reset()
	return msgs
}

func publishes(t *testing.T, msgs []rpcMessage) []publishDiagnosticsParams {
	t.Helper()
	var out []publishDiagnosticsParams
	for _, msg := range msgs {
		if msg.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var params publishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			t.Fatalf("decode publish: %v", err)
		}
		out = append(out, params)
	}
	return out
}

func TestPublishMissingKeyDiagnostics(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ws.ref)
	flush(server)

	pubs := publishes(t, readAll(t, &out))
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pubs))
	}
	if pubs[0].URI != ws.refURI {
		t.Fatalf("expected uri %q, got %q", ws.refURI, pubs[0].URI)
	}
	if len(pubs[0].Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(pubs[0].Diagnostics))
	}
	got := pubs[0].Diagnostics[0]
	want := lspRange{Start: position{Line: 0, Character: 7}, End: position{Line: 0, Character: 10}}
	if got.Range != want {
		t.Fatalf("unexpected range: %+v", got.Range)
	}
	if got.Severity != severityWarning || got.Code != diagnosticCode || got.Source != diagnosticSource {
		t.Fatalf("unexpected diagnostic metadata: %+v", got)
	}
	if got.Message != `missing key "b" (present in en.json)` {
		t.Fatalf("unexpected message: %q", got.Message)
	}
}

func TestUnsavedBufferShadowsDisk(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ws.ref)
	openDoc(t, server, ws.cmpURI, `{"a":1,"b":2}`)
	flush(server)

	for _, p := range publishes(t, readAll(t, &out)) {
		if len(p.Diagnostics) != 0 {
			t.Fatalf("expected no diagnostics for %s, got %d", p.URI, len(p.Diagnostics))
		}
	}
}

func TestUTF16Positions(t *testing.T) {
	ref := "{\n  \"🙂\": \"x\",\n  \"é\": \"y\"\n}"
	ws := newTestWorkspace(t, ref, `{"🙂":"x"}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ref)
	flush(server)
	pubs := publishes(t, readAll(t, &out))
	if len(pubs) != 1 || len(pubs[0].Diagnostics) != 1 {
		t.Fatalf("unexpected publishes: %+v", pubs)
	}
	got := pubs[0].Diagnostics[0].Range
	want := lspRange{Start: position{Line: 2, Character: 2}, End: position{Line: 2, Character: 5}}
	if got != want {
		t.Fatalf("unexpected range: %+v", got)
	}
}

func TestToggleClearsWithoutRecompute(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	var runs atomic.Int32
	counting := func(ctx context.Context, p engine.Provider, req engine.Request) (*engine.Result, error) {
		runs.Add(1)
		return engine.Run(ctx, p, req)
	}
	server := newTestServer(t, ws, &out, counting)

	openDoc(t, server, ws.refURI, ws.ref)
	flush(server)
	readAll(t, &out)
	if runs.Load() != 1 {
		t.Fatalf("expected 1 run, got %d", runs.Load())
	}

	request(t, server, "workspace/executeCommand", executeCommandParams{Command: commandToggle})
	pubs := publishes(t, readAll(t, &out))
	if len(pubs) != 1 || pubs[0].URI != ws.refURI || len(pubs[0].Diagnostics) != 0 {
		t.Fatalf("expected a single clearing publish, got %+v", pubs)
	}
	if runs.Load() != 1 {
		t.Fatalf("disabling must not recompute, runs=%d", runs.Load())
	}

	request(t, server, "workspace/executeCommand", executeCommandParams{Command: commandToggle})
	readAll(t, &out)
	flush(server)
	pubs = publishes(t, readAll(t, &out))
	if runs.Load() != 2 {
		t.Fatalf("enabling must recompute, runs=%d", runs.Load())
	}
	if len(pubs) != 1 || len(pubs[0].Diagnostics) != 1 {
		t.Fatalf("expected diagnostics after re-enable, got %+v", pubs)
	}
}

func TestStaleSequenceDoesNotPublish(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ws.ref)
	stale := atomic.LoadUint64(&server.latestSeq)
	server.scheduleDiagnostics()
	server.runDiagnostics(stale)
	if msgs := readAll(t, &out); len(msgs) != 0 {
		t.Fatalf("stale cycle published %d messages", len(msgs))
	}
	flush(server)
	if pubs := publishes(t, readAll(t, &out)); len(pubs) != 1 {
		t.Fatalf("expected latest cycle to publish, got %d", len(pubs))
	}
}

func TestMalformedKeepsDiagnostics(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ws.ref)
	flush(server)
	readAll(t, &out)

	call(t, server, "textDocument/didChange", didChangeTextDocumentParams{
		TextDocument:   versionedTextDocumentIdentifier{URI: ws.refURI, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{Text: `{"a":1,"b":`}},
	})
	flush(server)
	msgs := readAll(t, &out)
	if len(publishes(t, msgs)) != 0 {
		t.Fatalf("malformed input must not touch published diagnostics")
	}
	if len(msgs) != 1 || msgs[0].Method != "window/showMessage" {
		t.Fatalf("expected showMessage, got %+v", msgs)
	}
	var params showMessageParams
	if err := json.Unmarshal(msgs[0].Params, &params); err != nil {
		t.Fatalf("decode showMessage: %v", err)
	}
	if params.Type != messageError || !strings.Contains(params.Message, "malformed document") {
		t.Fatalf("unexpected showMessage: %+v", params)
	}
	server.mu.Lock()
	_, stillPublished := server.published[ws.refURI]
	server.mu.Unlock()
	if !stillPublished {
		t.Fatalf("published set lost the reference document")
	}
}

func TestUnrelatedActiveDocumentIsNoop(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ws.ref)
	flush(server)
	readAll(t, &out)

	other := pathToURI(filepath.Join(ws.dir, "readme.json"))
	openDoc(t, server, other, `{}`)
	call(t, server, methodActiveDocument, activeDocumentParams{URI: other})
	flush(server)
	if msgs := readAll(t, &out); len(msgs) != 0 {
		t.Fatalf("expected no output for unrelated document, got %d messages", len(msgs))
	}
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	openDoc(t, server, ws.refURI, ws.ref)
	flush(server)
	readAll(t, &out)

	call(t, server, "textDocument/didClose", didCloseTextDocumentParams{TextDocument: textDocumentIdentifier{URI: ws.refURI}})
	pubs := publishes(t, readAll(t, &out))
	if len(pubs) != 1 || pubs[0].URI != ws.refURI || len(pubs[0].Diagnostics) != 0 {
		t.Fatalf("expected clearing publish on close, got %+v", pubs)
	}
}

func TestDidChangeConfiguration(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)

	call(t, server, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{
			"missingKeys": map[string]any{
				"compareFilePath": "fr.json",
				"locator":         "scoped",
				"debounceMs":      0,
				"trace":           true,
			},
		},
	})
	server.mu.Lock()
	got := server.settings
	debounce := server.debounce
	traceLSP := server.traceLSP
	server.mu.Unlock()
	if got.ComparePath != "fr.json" || got.Locator.String() != "scoped" {
		t.Fatalf("settings not applied: %+v", got)
	}
	if debounce != 0 || !traceLSP {
		t.Fatalf("server settings not applied: debounce=%v trace=%v", debounce, traceLSP)
	}

	call(t, server, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"missingKeys": map[string]any{"fileType": "xml"}},
	})
	if server.currentSettings().FileType.String() != "json" {
		t.Fatalf("invalid settings must leave the snapshot unchanged")
	}
	msgs := readAll(t, &out)
	found := false
	for _, m := range msgs {
		if m.Method == "window/showMessage" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected showMessage for invalid settings")
	}
}

func TestDidChangeConfigurationRereadsWholeObject(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1}`, `{"a":1}`)
	server := newTestServer(t, ws, io.Discard, nil)
	defer server.stopPending()

	call(t, server, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"missingKeys": map[string]any{
			"referencePath": "locales/en.json",
			"comparePath":   "locales/de.json",
			"locator":       "scoped",
			"debounceMs":    0,
			"trace":         true,
		}},
	})
	call(t, server, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"missingKeys": map[string]any{"comparePath": "fr.json"}},
	})

	server.mu.Lock()
	got := server.settings
	debounce := server.debounce
	traceLSP := server.traceLSP
	server.mu.Unlock()
	if got.ReferencePath != "en.json" || got.ComparePath != "fr.json" {
		t.Fatalf("paths carried over from the previous notification: ref=%q cmp=%q", got.ReferencePath, got.ComparePath)
	}
	if got.Locator != config.Default().Locator {
		t.Fatalf("locator carried over from the previous notification: %s", got.Locator)
	}
	if debounce != time.Hour || traceLSP {
		t.Fatalf("server settings carried over: debounce=%v trace=%v", debounce, traceLSP)
	}
}

func TestDidChangeConfigurationKeepsWorkspaceConfigAsBase(t *testing.T) {
	dir := t.TempDir()
	content := "reference_path = \"en.json\"\ncompare_path = \"de.json\"\nlocator = \"legacy\"\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	server := NewServer(bytes.NewReader(nil), io.Discard, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	request(t, server, "initialize", map[string]any{"rootUri": pathToURI(dir)})

	call(t, server, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"missingKeys": map[string]any{"locator": "scoped"}},
	})
	call(t, server, "workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"missingKeys": map[string]any{"comparePath": "fr.json"}},
	})
	s := server.currentSettings()
	server.stopPending()
	if s.ReferencePath != "en.json" || s.ComparePath != "fr.json" || s.Locator.String() != "legacy" {
		t.Fatalf("expected workspace config as base, got %+v", s)
	}
}

func TestBurstOfChangesRunsOneCycle(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1,"b":2}`, `{"a":1}`)
	var runs atomic.Int32
	ran := make(chan struct{}, 16)
	counting := func(ctx context.Context, p engine.Provider, req engine.Request) (*engine.Result, error) {
		runs.Add(1)
		defer func() { ran <- struct{}{} }()
		return engine.Run(ctx, p, req)
	}
	settings := config.Default()
	settings.ReferencePath = "en.json"
	settings.ComparePath = "de.json"
	server := NewServer(bytes.NewReader(nil), io.Discard, ServerOptions{
		Debounce: 80 * time.Millisecond,
		Settings: &settings,
		Run:      counting,
		Log:      io.Discard,
	})
	server.workspaceRoot = ws.dir
	defer server.stopPending()

	openDoc(t, server, ws.refURI, ws.ref)
	for i := 2; i <= 10; i++ {
		time.Sleep(5 * time.Millisecond)
		call(t, server, "textDocument/didChange", didChangeTextDocumentParams{
			TextDocument:   versionedTextDocumentIdentifier{URI: ws.refURI, Version: i},
			ContentChanges: []textDocumentContentChangeEvent{{Text: ws.ref}},
		})
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatalf("debounced cycle never ran")
	}
	time.Sleep(300 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Fatalf("expected one coalesced cycle, got %d", n)
	}
}

func TestPublishIfLatestDropsSupersededCycle(t *testing.T) {
	ws := newTestWorkspace(t, `{"a":1}`, `{"a":1}`)
	var out bytes.Buffer
	server := newTestServer(t, ws, &out, nil)
	defer server.stopPending()

	server.scheduleDiagnostics()
	older := atomic.LoadUint64(&server.latestSeq)
	server.scheduleDiagnostics()
	newer := atomic.LoadUint64(&server.latestSeq)

	sent, err := server.publishIfLatest(older, ws.refURI, nil)
	if err != nil || sent {
		t.Fatalf("superseded cycle sent=%v err=%v", sent, err)
	}
	if msgs := readAll(t, &out); len(msgs) != 0 {
		t.Fatalf("superseded cycle wrote %d messages", len(msgs))
	}
	sent, err = server.publishIfLatest(newer, ws.refURI, nil)
	if err != nil || !sent {
		t.Fatalf("latest cycle sent=%v err=%v", sent, err)
	}
	if pubs := publishes(t, readAll(t, &out)); len(pubs) != 1 || pubs[0].URI != ws.refURI {
		t.Fatalf("expected one publish for the latest cycle, got %+v", pubs)
	}
}

func TestInitializeWithOptions(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	request(t, server, "initialize", map[string]any{
		"rootUri": pathToURI(dir),
		"initializationOptions": map[string]any{
			"referencePath": "locales/en.json",
			"comparePath":   "locales/de.json",
			"isEnabled":     false,
		},
	})
	s := server.currentSettings()
	if s.ReferencePath != "locales/en.json" || s.ComparePath != "locales/de.json" || s.Enabled {
		t.Fatalf("initializationOptions not applied: %+v", s)
	}
	if server.workspaceRoot != dir {
		t.Fatalf("expected root %q, got %q", dir, server.workspaceRoot)
	}
	msgs := readAll(t, &out)
	if len(msgs) != 1 || len(msgs[0].Result) == 0 {
		t.Fatalf("expected initialize response, got %+v", msgs)
	}
	var result initializeResult
	if err := json.Unmarshal(msgs[0].Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Capabilities.ExecuteCommandProvider == nil || len(result.Capabilities.ExecuteCommandProvider.Commands) != 2 {
		t.Fatalf("missing command capabilities: %+v", result.Capabilities)
	}
}

func TestInitializeLoadsWorkspaceConfig(t *testing.T) {
	dir := t.TempDir()
	content := "reference_path = \"en.json\"\ncompare_path = \"de.json\"\nlocator = \"legacy\"\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	request(t, server, "initialize", map[string]any{"rootUri": pathToURI(dir)})
	s := server.currentSettings()
	if s.ReferencePath != "en.json" || s.Locator.String() != "legacy" {
		t.Fatalf("workspace config not loaded: %+v", s)
	}
}

func TestRunExitAfterShutdown(t *testing.T) {
	var in bytes.Buffer
	for _, payload := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		if err := writeMessage(&in, []byte(payload)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var out bytes.Buffer
	server := NewServer(&in, &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})
	if err := server.Run(context.Background()); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
}

func TestRunExitWithoutShutdown(t *testing.T) {
	var in bytes.Buffer
	if err := writeMessage(&in, []byte(`{"jsonrpc":"2.0","method":"exit"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	server := NewServer(&in, io.Discard, ServerOptions{Log: io.Discard})
	if err := server.Run(context.Background()); !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("expected ErrExitWithoutShutdown, got %v", err)
	}
}

func TestUnknownRequest(t *testing.T) {
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{Log: io.Discard})
	request(t, server, "textDocument/hover", map[string]any{})
	msgs := readAll(t, &out)
	if len(msgs) != 1 || msgs[0].Error == nil || msgs[0].Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", msgs)
	}
}
