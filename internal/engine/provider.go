package engine

import (
	"os"
	"path/filepath"
	"sync"
)

// Provider supplies document text. GetText serves open buffers and takes
// precedence over ReadFile for the same identifier.
type Provider interface {
	GetText(id string) (string, bool)
	ReadFile(path string) ([]byte, error)
	ListDirectory(path string) ([]string, error)
	VisibleDocuments() []string
}

// DiskProvider reads from the file system with an optional in-memory overlay.
type DiskProvider struct {
	mu      sync.RWMutex
	overlay map[string]string
	visible []string
}

// NewDiskProvider returns a provider with an empty overlay.
func NewDiskProvider() *DiskProvider {
	return &DiskProvider{overlay: make(map[string]string)}
}

// SetOverlay shadows path with text until ClearOverlay.
func (d *DiskProvider) SetOverlay(path, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay[filepath.Clean(path)] = text
}

// ClearOverlay drops the overlay for path.
func (d *DiskProvider) ClearOverlay(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.overlay, filepath.Clean(path))
}

// SetVisible replaces the visible document list.
func (d *DiskProvider) SetVisible(paths ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = append(d.visible[:0], paths...)
}

func (d *DiskProvider) GetText(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	text, ok := d.overlay[filepath.Clean(id)]
	return text, ok
}

func (d *DiskProvider) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ListDirectory returns the regular file names in path, sorted by name.
func (d *DiskProvider) ListDirectory(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (d *DiskProvider) VisibleDocuments() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.visible...)
}
