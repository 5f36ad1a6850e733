package lsp

import (
	"encoding/json"
	"fmt"
	"time"

	"missingkeys/internal/config"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	if len(params.Settings) == 0 {
		return nil
	}
	var wrapped lspSettings
	if err := json.Unmarshal(params.Settings, &wrapped); err != nil {
		s.logf("didChangeConfiguration: %v", err)
		return nil
	}
	if len(wrapped.MissingKeys) == 0 {
		return nil
	}
	if err := s.applySettings(wrapped.MissingKeys); err != nil {
		s.logf("didChangeConfiguration: %v", err)
		s.showMessage(messageError, "missingkeys: "+err.Error())
		return nil
	}
	s.afterSettingsChange()
	return nil
}

// applySettings rebuilds the snapshot from a complete missingKeys settings
// object. Keys absent from raw take their base value (defaults, startup
// settings or the workspace missingkeys.toml), never the previous snapshot.
// On error the snapshot is left unchanged.
func (s *Server) applySettings(raw json.RawMessage) error {
	patch, err := config.DecodeJSON(raw)
	if err != nil {
		return err
	}
	var extra serverSettings
	if err := json.Unmarshal(raw, &extra); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := patch.Apply(s.base)
	if err != nil {
		return err
	}
	s.settings = next
	s.configured = true
	s.debounce = s.baseDebounce
	if extra.DebounceMs != nil && *extra.DebounceMs >= 0 {
		s.debounce = time.Duration(*extra.DebounceMs) * time.Millisecond
	}
	s.traceLSP = extra.Trace != nil && *extra.Trace
	return nil
}

// afterSettingsChange clears highlights when the switch went off and
// recomputes otherwise.
func (s *Server) afterSettingsChange() {
	if !s.currentSettings().Enabled {
		s.stopPending()
		s.clearPublishedDiagnostics()
		return
	}
	s.scheduleDiagnostics()
}

func (s *Server) currentSettings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}
