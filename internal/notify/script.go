package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Compile-time interface guard.
var _ Notifier = (*ScriptNotifier)(nil)

// ScriptNotifier runs a configured command with the alert's interval label
// as its argument, mirroring the classic "binary-name.command" notification
// hook: the script decides what the notification actually is (sound, mail,
// page). Only fired on "triggered" events; re-arms are silent.
type ScriptNotifier struct {
	cfg ScriptConfig
}

// NewScriptNotifier creates a script notifier with the given config.
func NewScriptNotifier(cfg ScriptConfig) *ScriptNotifier {
	return &ScriptNotifier{cfg: cfg}
}

// Notify executes the configured command.
func (s *ScriptNotifier) Notify(ctx context.Context, alert *Alert, eventType string) error {
	if eventType != "triggered" {
		return nil
	}
	if s.cfg.Command == "" {
		return fmt.Errorf("script notifier: no command configured")
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.cfg.Command, alert.Label)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w (output: %.200s)", s.cfg.Command, err, out)
	}
	return nil
}

// Type returns the notifier type identifier.
func (s *ScriptNotifier) Type() string {
	return "script"
}
