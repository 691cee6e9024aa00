package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/GEEflies/automation/config"

	"github.com/rs/zerolog/log"
)

// ffprobe output shapes we care about
type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeResult struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// Prober measures source clips before composition
type Prober struct {
	cfg *config.Config
}

// NewProber creates a new Prober
func NewProber(cfg *config.Config) *Prober {
	return &Prober{cfg: cfg}
}

// Probe returns the source's frame size and duration in seconds. Any probe
// failure falls back to the configured frame and the duration cap, so a
// source that ffprobe cannot read still gets composed at default geometry.
func (p *Prober) Probe(ctx context.Context, path string) (width, height int, duration float64) {
	w, h, d, err := p.probe(ctx, path)
	if err != nil {
		log.Warn().
			Str("component", "compose").
			Str("reason", "probe_failed").
			Str("source", path).
			Err(err).
			Msg("ffprobe failed, using the default frame and duration")
		return p.cfg.Video.FrameWidth, p.cfg.Video.FrameHeight, p.cfg.Video.MaxDurationSec
	}
	return w, h, d
}

func (p *Prober) probe(ctx context.Context, path string) (int, int, float64, error) {
	out, err := exec.CommandContext(ctx, p.cfg.Video.FFprobeBin,
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height,duration:format=duration",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, 0, 0, err
	}
	return parseProbeOutput(out)
}

// parseProbeOutput picks the first video stream for dimensions and prefers
// its duration over the container-level one.
func parseProbeOutput(out []byte) (int, int, float64, error) {
	var res ffprobeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return 0, 0, 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var video *ffprobeStream
	for i := range res.Streams {
		if res.Streams[i].CodecType == "video" {
			video = &res.Streams[i]
			break
		}
	}
	if video == nil || video.Width <= 0 || video.Height <= 0 {
		return 0, 0, 0, fmt.Errorf("no measurable video stream")
	}

	duration, err := strconv.ParseFloat(video.Duration, 64)
	if err != nil || duration <= 0 {
		duration, err = strconv.ParseFloat(res.Format.Duration, 64)
		if err != nil || duration <= 0 {
			return 0, 0, 0, fmt.Errorf("no usable duration in probe output")
		}
	}

	return video.Width, video.Height, duration, nil
}
