package lsp

import (
	"os"
	"path/filepath"

	"missingkeys/internal/config"
)

// loadWorkspaceConfig seeds settings from a missingkeys.toml at the workspace
// root when the server was started without settings. Files above the root are
// ignored since relative paths resolve against the root.
func (s *Server) loadWorkspaceConfig(workspaceRoot string) {
	start := resolveStartDir(workspaceRoot)
	if start == "" {
		return
	}
	path, ok, err := config.FindFile(start)
	if err != nil {
		s.logf("config lookup: %v", err)
		return
	}
	if !ok || filepath.Dir(path) != filepath.Clean(start) {
		return
	}
	settings, _, err := config.Load(path)
	if err != nil {
		s.logf("config: %v", err)
		return
	}
	s.mu.Lock()
	s.settings = settings
	s.base = settings
	s.mu.Unlock()
	s.logf("loaded %s", path)
}

func resolveStartDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
