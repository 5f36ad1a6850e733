package engine

import (
	"context"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"missingkeys/internal/config"
	"missingkeys/internal/document"
	"missingkeys/internal/keycache"
	"missingkeys/internal/keys"
	"missingkeys/internal/locate"
	"missingkeys/internal/source"
	"missingkeys/internal/trace"
)

// extracted is the flattened form of one document. node is kept for the
// nested-keys YAML strategy when the document is decorated.
type extracted struct {
	keys []string
	node *yaml.Node
}

func runPair(ctx context.Context, p Provider, req Request, pr Pair, sides []string) PairResult {
	out := PairResult{Pair: pr}
	s := req.Settings
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopePair, pr.Name, trace.ParentFrom(ctx))
	parent := span.ID()
	if parent == 0 {
		parent = trace.ParentFrom(ctx)
	}
	fail := func(err error) PairResult {
		trace.Point(tr, trace.ScopeError, pr.Name, err.Error(), parent)
		span.End("error")
		out.Err = err
		return out
	}

	phase := trace.Begin(tr, trace.ScopePhase, string(PhaseLoad), parent)
	done := req.enter(pr.Name, PhaseLoad)
	refText, err := loadText(p, pr.Reference)
	var cmpText string
	if err == nil {
		cmpText, err = loadText(p, pr.Compare)
	}
	done()
	phase.End("")
	if err != nil {
		return fail(err)
	}

	decorated := func(path string) bool {
		for _, side := range sides {
			if side == path {
				return true
			}
		}
		return false
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	phase = trace.Begin(tr, trace.ScopePhase, string(PhaseFlatten), parent)
	done = req.enter(pr.Name, PhaseFlatten)
	ref, err := extract(s, req.Cache, pr.Reference, refText, decorated(pr.Reference))
	var cmp extracted
	if err == nil {
		cmp, err = extract(s, req.Cache, pr.Compare, cmpText, decorated(pr.Compare))
	}
	done()
	phase.WithExtra("reference", strconv.Itoa(len(ref.keys))).
		WithExtra("compare", strconv.Itoa(len(cmp.keys))).End("")
	if err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	phase = trace.Begin(tr, trace.ScopePhase, string(PhaseDiff), parent)
	done = req.enter(pr.Name, PhaseDiff)
	out.Missing = keys.Diff(ref.keys, cmp.keys)
	done()
	phase.WithExtra("missing", strconv.Itoa(len(out.Missing))).End("")

	phase = trace.Begin(tr, trace.ScopePhase, string(PhaseLocate), parent)
	done = req.enter(pr.Name, PhaseLocate)
	for _, side := range sides {
		text, doc := refText, ref
		if side != pr.Reference {
			text, doc = cmpText, cmp
		}
		d := Decoration{Document: side, Text: text, Findings: make([]Finding, 0, len(out.Missing))}
		for _, key := range out.Missing {
			if err := ctx.Err(); err != nil {
				done()
				phase.End("canceled")
				return fail(err)
			}
			sp, found := locateKey(s, key, text, doc.node)
			if found {
				trace.Point(tr, trace.ScopeKey, key, sp.String(), phase.ID())
			}
			d.Findings = append(d.Findings, Finding{Key: key, Span: sp, Found: found})
		}
		out.Decorations = append(out.Decorations, d)
	}
	done()
	phase.End("")

	span.WithExtra("missing", strconv.Itoa(len(out.Missing))).End("")
	return out
}

// loadText prefers an open buffer over disk content.
func loadText(p Provider, path string) (string, error) {
	if text, ok := p.GetText(path); ok {
		return text, nil
	}
	data, err := p.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrReadDocument, path, err)
	}
	decoded, _, err := source.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrReadDocument, path, err)
	}
	return string(decoded), nil
}

// cacheMode names the extraction settings that determine a key sequence.
func cacheMode(s config.Settings) string {
	switch {
	case s.UsesSpecialKey():
		return "yaml-special:" + s.YAMLSpecialKey
	case s.FileType == document.FormatYAML:
		return "yaml-nested"
	default:
		return "json"
	}
}

// extract flattens one document. needNode forces a YAML parse so the
// node tree is available to the locator.
func extract(s config.Settings, cache *keycache.Cache, path, text string, needNode bool) (extracted, error) {
	if s.UsesSpecialKey() {
		return extracted{keys: keys.ExtractSpecial(text, s.YAMLSpecialKey)}, nil
	}
	nested := s.FileType == document.FormatYAML
	mode := cacheMode(s)
	var digest keycache.Digest
	if cache != nil && !(nested && needNode) {
		digest = keycache.Key(mode, []byte(text))
		if ks, ok, err := cache.Get(digest, mode); err == nil && ok {
			return extracted{keys: ks}, nil
		}
	}

	var (
		v    document.Value
		node *yaml.Node
		err  error
	)
	if nested && needNode {
		v, node, err = document.ParseYAML([]byte(text))
	} else {
		v, err = document.Parse(s.FileType, []byte(text))
	}
	if err != nil {
		return extracted{}, fmt.Errorf("%w %s: %w", ErrMalformedDocument, path, err)
	}
	out := extracted{keys: keys.Flatten(v), node: node}
	if cache != nil && !(nested && needNode) {
		// cache failures only cost a re-parse next time
		_ = cache.Put(digest, mode, out.keys)
	}
	return out, nil
}

func locateKey(s config.Settings, key, text string, node *yaml.Node) (source.Span, bool) {
	switch {
	case s.UsesSpecialKey():
		return locate.Special(s.YAMLSpecialKey, key, text)
	case s.FileType == document.FormatYAML:
		return locate.YAMLNode(keys.Split(key), node, text)
	default:
		return locate.JSON(s.Locator, keys.Split(key), text)
	}
}
