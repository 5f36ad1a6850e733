package lsp

import (
	"path/filepath"

	"missingkeys/internal/engine"
)

// snapshotProvider serves the open buffers captured when a cycle started and
// falls back to disk for everything else.
type snapshotProvider struct {
	*engine.DiskProvider
	overlay map[string]string
	visible []string
}

func newSnapshotProvider(overlay map[string]string, visible []string) *snapshotProvider {
	return &snapshotProvider{
		DiskProvider: engine.NewDiskProvider(),
		overlay:      overlay,
		visible:      visible,
	}
}

func (p *snapshotProvider) GetText(id string) (string, bool) {
	text, ok := p.overlay[filepath.Clean(id)]
	return text, ok
}

func (p *snapshotProvider) VisibleDocuments() []string {
	return p.visible
}
