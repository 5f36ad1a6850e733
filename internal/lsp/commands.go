package lsp

import (
	"encoding/json"
)

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	switch params.Command {
	case commandToggle:
		enabled := s.toggle()
		return s.sendResponse(msg.ID, map[string]bool{"isEnabled": enabled})
	case commandRun:
		s.scheduleDiagnostics()
		return s.sendResponse(msg.ID, nil)
	default:
		return s.sendError(msg.ID, -32602, "unknown command "+params.Command)
	}
}

// toggle flips the enabled switch. Turning it off clears every published
// document without running a cycle; turning it on schedules one.
func (s *Server) toggle() bool {
	s.mu.Lock()
	s.settings.Enabled = !s.settings.Enabled
	enabled := s.settings.Enabled
	s.mu.Unlock()
	if enabled {
		s.logf("enabled")
	} else {
		s.logf("disabled")
	}
	s.afterSettingsChange()
	return enabled
}
