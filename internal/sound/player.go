// Package sound plays feedback WAV files through aplay so the user hears
// when the satellite wakes up and when a command was understood.
package sound

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// Player shells out to aplay for feedback sounds. Playback failures are
// logged and swallowed; a missing beep must never break the voice loop.
type Player struct {
	device string
	logger *slog.Logger
}

// NewPlayer creates a player for the given ALSA device ("" for default)
func NewPlayer(device string, logger *slog.Logger) *Player {
	return &Player{
		device: device,
		logger: logger,
	}
}

// Play plays a WAV file, blocking until playback finishes. An empty path
// is a no-op so feedback sounds can be left unconfigured.
func (p *Player) Play(path string) error {
	if path == "" {
		return nil
	}

	args := []string{}
	if p.device != "" {
		args = append(args, "-D", p.device)
	}
	args = append(args, path)

	if out, err := exec.Command("aplay", args...).CombinedOutput(); err != nil {
		p.logger.Warn("feedback sound playback failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
			slog.String("output", string(out)),
		)
		return fmt.Errorf("aplay %s: %w", path, err)
	}

	return nil
}
