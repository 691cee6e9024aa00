package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/GEEflies/automation/config"

	"github.com/rs/zerolog/log"
)

// ErrEncode means the external encoder exited non-zero
var ErrEncode = errors.New("encode failed")

// Composer drives the external encoder: the source is rescaled to the probed
// frame, the static overlay is looped on top of it for the whole clip, and
// the audio track is dropped. The output is always silent; music and spoken
// captions get added further down the editing chain.
type Composer struct {
	cfg *config.Config
}

// NewComposer creates a new Composer
func NewComposer(cfg *config.Config) *Composer {
	return &Composer{cfg: cfg}
}

// EffectiveDuration caps the render length: a source shorter than the cap
// renders in full, anything longer is cut at the cap.
func EffectiveDuration(source, limit float64) float64 {
	if source < limit {
		return source
	}
	return limit
}

// Composite burns the overlay onto the source for the given duration and
// writes the result to outFile. On encoder failure any partial output is
// removed so a broken file is never advertised as a finished clip.
func (c *Composer) Composite(ctx context.Context, sourcePath, overlayPath, outFile string, w, h int, duration float64) error {
	args := c.buildArgs(sourcePath, overlayPath, outFile, w, h, duration)

	log.Info().
		Str("component", "compose").
		Str("source", sourcePath).
		Str("output", outFile).
		Float64("duration_sec", duration).
		Msg("encoding")

	cmd := exec.CommandContext(ctx, c.cfg.Video.FFmpegBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if removeErr := os.Remove(outFile); removeErr != nil && !os.IsNotExist(removeErr) {
			log.Warn().Str("component", "compose").Err(removeErr).Msg("could not remove partial output")
		}
		log.Error().
			Str("component", "compose").
			Str("output", tail(out, 800)).
			Err(err).
			Msg("ffmpeg exited with an error")
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

func (c *Composer) buildArgs(sourcePath, overlayPath, outFile string, w, h int, duration float64) []string {
	filter := fmt.Sprintf("[0:v]scale=%d:%d[base];[base][1:v]overlay=0:0:shortest=1", w, h)
	return []string{
		"-y",
		"-i", sourcePath,
		"-loop", "1",
		"-i", overlayPath,
		"-filter_complex", filter,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-preset", c.cfg.Video.Preset,
		"-an",
		outFile,
	}
}

// tail keeps the last n bytes of encoder output
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
