package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"missingkeys/internal/config"
	"missingkeys/internal/keycache"
	"missingkeys/internal/observ"
	"missingkeys/internal/source"
	"missingkeys/internal/trace"
)

// Side selects which document of a pair is decorated.
type Side uint8

const (
	// SideAuto decorates whichever pair member is among the active documents.
	SideAuto Side = iota
	SideReference
	SideCompare
)

// Request is the input of one cycle.
type Request struct {
	Settings config.Settings
	// Root is the workspace root for relative paths.
	Root string
	// Documents are the active document paths for SideAuto. Nil means the
	// provider's visible documents.
	Documents []string
	Side      Side
	// Jobs bounds parallel pairs in batch mode. Zero uses GOMAXPROCS.
	Jobs  int
	Cache *keycache.Cache
	Timer *observ.Timer
	// OnPhase is called from worker goroutines as a pair enters a phase.
	OnPhase func(pair string, phase Phase)
	// OnPair is called from worker goroutines as each pair completes.
	OnPair func(PairResult)
}

// Phase names one step of a pair run.
type Phase string

const (
	PhaseLoad    Phase = "load"
	PhaseFlatten Phase = "flatten"
	PhaseDiff    Phase = "diff"
	PhaseLocate  Phase = "locate"
)

func (r Request) enter(pair string, ph Phase) func() {
	if r.OnPhase != nil {
		r.OnPhase(pair, ph)
	}
	return r.Timer.Track(string(ph))
}

// Pair is one reference/comparison couple.
type Pair struct {
	Name      string
	Reference string
	Compare   string
}

// Finding is the location of one missing key in a decorated document.
// Found is false when the locator could not match the key.
type Finding struct {
	Key   string
	Span  source.Span
	Found bool
}

// Decoration is the replace-all span list for one document.
type Decoration struct {
	Document string
	Text     string
	Findings []Finding
}

// Spans returns the located spans in key order.
func (d Decoration) Spans() []source.Span {
	out := make([]source.Span, 0, len(d.Findings))
	for _, f := range d.Findings {
		if f.Found {
			out = append(out, f.Span)
		}
	}
	return out
}

// PairResult is the outcome of one pair. Err is set when the pair failed.
type PairResult struct {
	Pair
	Missing     []string
	Decorations []Decoration
	Err         error
}

// Result is the outcome of one cycle.
type Result struct {
	// Disabled is set when the settings switch is off; callers clear all spans.
	Disabled bool
	Pairs    []PairResult
	// Documents maps each decorated document to its findings.
	Documents map[string][]Finding
}

// Err joins the per-pair errors.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.Pairs {
		if p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errors.Join(errs...)
}

// MissingCount sums the missing keys across pairs.
func (r *Result) MissingCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Pairs {
		n += len(p.Missing)
	}
	return n
}

// Run performs one cycle. A disabled configuration or unset paths return an
// empty result without error. In two-files mode a pair failure is returned as
// the cycle error; in folder mode pair failures are recorded per pair and only
// a listing failure fails the cycle.
func Run(ctx context.Context, p Provider, req Request) (*Result, error) {
	s := req.Settings
	if !s.Enabled {
		return &Result{Disabled: true}, nil
	}
	if s.Unset() {
		return &Result{}, nil
	}

	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeCycle, "cycle", trace.ParentFrom(ctx))
	ctx = trace.WithParent(ctx, span.ID())

	refPath, cmpPath := s.Resolve(req.Root)
	var pairs []Pair
	if s.CompareMode == config.ModeSameNameFolders {
		var err error
		if pairs, err = listPairs(p, refPath, cmpPath); err != nil {
			trace.Point(tr, trace.ScopeError, "list", err.Error(), span.ID())
			span.End("error")
			return nil, err
		}
	} else {
		pairs = []Pair{{Name: filepath.Base(refPath), Reference: refPath, Compare: cmpPath}}
	}

	active := req.Documents
	if active == nil && req.Side == SideAuto {
		active = p.VisibleDocuments()
	}
	activeSet := make(map[string]struct{}, len(active))
	for _, doc := range active {
		activeSet[filepath.Clean(doc)] = struct{}{}
	}

	type job struct {
		pair  Pair
		sides []string
	}
	jobs := make([]job, 0, len(pairs))
	for _, pr := range pairs {
		sides := decoratedSides(pr, req.Side, activeSet)
		if len(sides) == 0 {
			continue
		}
		jobs = append(jobs, job{pair: pr, sides: sides})
	}
	span.WithExtra("pairs", strconv.Itoa(len(jobs)))

	results := make([]PairResult, len(jobs))
	limit := req.Jobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(limit, len(jobs))))
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runPair(gctx, p, req, j.pair, j.sides)
			if req.OnPair != nil {
				req.OnPair(results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("canceled")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		span.End("canceled")
		return nil, err
	}

	res := &Result{Pairs: results, Documents: make(map[string][]Finding)}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, d := range r.Decorations {
			res.Documents[d.Document] = d.Findings
		}
	}
	if s.CompareMode == config.ModeTwoFiles && len(results) == 1 && results[0].Err != nil {
		span.End("error")
		return nil, results[0].Err
	}
	span.WithExtra("missing", strconv.Itoa(res.MissingCount())).End("")
	return res, nil
}

// decoratedSides returns the pair members to decorate, reference first.
func decoratedSides(pr Pair, side Side, active map[string]struct{}) []string {
	switch side {
	case SideReference:
		return []string{pr.Reference}
	case SideCompare:
		return []string{pr.Compare}
	}
	var out []string
	if _, ok := active[pr.Reference]; ok {
		out = append(out, pr.Reference)
	}
	if _, ok := active[pr.Compare]; ok && pr.Compare != pr.Reference {
		out = append(out, pr.Compare)
	}
	return out
}

// listPairs intersects the two listings in reference listing order.
func listPairs(p Provider, refDir, cmpDir string) ([]Pair, error) {
	refNames, err := p.ListDirectory(refDir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrListDirectory, refDir, err)
	}
	cmpNames, err := p.ListDirectory(cmpDir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrListDirectory, cmpDir, err)
	}
	present := make(map[string]struct{}, len(cmpNames))
	for _, name := range cmpNames {
		present[name] = struct{}{}
	}
	pairs := make([]Pair, 0, len(refNames))
	seen := make(map[string]struct{}, len(refNames))
	for _, name := range refNames {
		if _, ok := present[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		pairs = append(pairs, Pair{
			Name:      name,
			Reference: filepath.Join(refDir, name),
			Compare:   filepath.Join(cmpDir, name),
		})
	}
	return pairs, nil
}
