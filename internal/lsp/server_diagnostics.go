package lsp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"missingkeys/internal/engine"
	"missingkeys/internal/source"
	"missingkeys/internal/trace"
)

const (
	severityWarning   = 2
	diagnosticCode    = "missing-key"
	diagnosticSource  = "missingkeys"
	maxMessageErrText = 400
)

func (s *Server) scheduleDiagnostics() {
	s.mu.Lock()
	seq := atomic.AddUint64(&s.analysisSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.diagCancel != nil {
		s.diagCancel()
		s.diagCancel = nil
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	delay := s.debounce
	s.debounceTimer = time.AfterFunc(delay, func() {
		s.runDiagnostics(seq)
	})
	s.mu.Unlock()
}

// stopPending cancels the timer and any in-flight cycle.
func (s *Server) stopPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	atomic.AddUint64(&s.latestSeq, 1<<32)
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	if s.diagCancel != nil {
		s.diagCancel()
		s.diagCancel = nil
	}
}

// cycleInput is the state one cycle reads, copied under the lock.
type cycleInput struct {
	req      engine.Request
	provider *snapshotProvider
	traceLSP bool
}

func (s *Server) snapshotCycleLocked() cycleInput {
	overlay := make(map[string]string, len(s.openDocs))
	visible := make([]string, 0, len(s.openDocs))
	for uri, text := range s.openDocs {
		path := uriToPath(uri)
		if path == "" {
			continue
		}
		overlay[path] = text
		visible = append(visible, path)
	}
	sort.Strings(visible)
	var documents []string
	if s.active != "" {
		if path := uriToPath(s.active); path != "" {
			documents = []string{path}
		}
	}
	return cycleInput{
		req: engine.Request{
			Settings:  s.settings,
			Root:      s.workspaceRoot,
			Documents: documents,
			Side:      engine.SideAuto,
			Cache:     s.cache,
		},
		provider: newSnapshotProvider(overlay, visible),
		traceLSP: s.traceLSP,
	}
}

func (s *Server) runDiagnostics(seq uint64) {
	if !s.isLatestSeq(seq) {
		return
	}
	s.mu.Lock()
	if s.diagCancel != nil {
		s.diagCancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.diagCancel = cancel
	in := s.snapshotCycleLocked()
	s.mu.Unlock()
	defer cancel()

	if !in.req.Settings.Enabled {
		s.clearPublishedDiagnostics()
		return
	}

	ctx = trace.WithTracer(ctx, s.tracer)
	started := time.Now()
	res, err := s.run(ctx, in.provider, in.req)
	if ctx.Err() != nil || !s.isLatestSeq(seq) {
		if in.traceLSP {
			s.logf("cycle: seq=%d discarded (stale)", seq)
		}
		return
	}
	if err != nil {
		// previous diagnostics stay in place until a cycle succeeds
		s.logf("cycle failed: %v", err)
		s.showMessage(messageError, "missingkeys: "+truncate(err.Error(), maxMessageErrText))
		return
	}
	if res.Disabled {
		s.clearPublishedDiagnostics()
		return
	}
	if pairErr := res.Err(); pairErr != nil {
		s.logf("cycle: %v", pairErr)
		s.showMessage(messageWarning, "missingkeys: "+truncate(pairErr.Error(), maxMessageErrText))
	}
	if in.traceLSP {
		s.logf("cycle: seq=%d pairs=%d missing=%d in %s", seq, len(res.Pairs), res.MissingCount(), time.Since(started).Round(time.Microsecond))
	}
	s.publishResult(seq, res)
}

// publishResult replaces the published set. Decorated documents get their new
// lists, documents of failed pairs keep theirs, and every other previously
// published document is cleared. A cycle that decorated nothing is a no-op.
func (s *Server) publishResult(seq uint64, res *engine.Result) {
	if len(res.Pairs) == 0 {
		return
	}
	held := make(map[string]struct{})
	targets := make(map[string][]lspDiagnostic)
	for _, pr := range res.Pairs {
		if pr.Err != nil {
			held[pathToURI(pr.Reference)] = struct{}{}
			held[pathToURI(pr.Compare)] = struct{}{}
			continue
		}
		for _, d := range pr.Decorations {
			targets[pathToURI(d.Document)] = buildDiagnostics(pr, d)
		}
	}

	uris := make([]string, 0, len(targets))
	for uri := range targets {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	s.mu.Lock()
	if !s.isLatestSeq(seq) {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{}, len(targets)+len(held))
	for _, uri := range uris {
		s.published[uri] = struct{}{}
	}
	var stale []string
	for uri := range prev {
		if _, ok := targets[uri]; ok {
			continue
		}
		if _, ok := held[uri]; ok {
			s.published[uri] = struct{}{}
			continue
		}
		stale = append(stale, uri)
	}
	s.mu.Unlock()
	sort.Strings(stale)

	for _, uri := range uris {
		sent, err := s.publishIfLatest(seq, uri, targets[uri])
		if err != nil {
			s.logf("failed to publish diagnostics: %v", err)
		}
		if !sent && err == nil {
			return
		}
	}
	for _, uri := range stale {
		sent, err := s.publishIfLatest(seq, uri, nil)
		if err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
		if !sent && err == nil {
			return
		}
	}
}

func buildDiagnostics(pr engine.PairResult, d engine.Decoration) []lspDiagnostic {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(d.Document, []byte(d.Text)))
	refName := filepath.Base(pr.Reference)
	out := make([]lspDiagnostic, 0, len(d.Findings))
	for _, f := range d.Findings {
		if !f.Found {
			continue
		}
		out = append(out, lspDiagnostic{
			Range:    rangeForSpan(file, f.Span),
			Severity: severityWarning,
			Code:     diagnosticCode,
			Source:   diagnosticSource,
			Message:  fmt.Sprintf("missing key %q (present in %s)", f.Key, refName),
		})
	}
	return out
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := make([]string, 0, len(s.published))
	for uri := range s.published {
		prev = append(prev, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	sort.Strings(prev)
	for _, uri := range prev {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
