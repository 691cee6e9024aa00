package compose

import (
	"context"
	"testing"

	"github.com/GEEflies/automation/config"

	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	t.Run("prefers stream duration", func(t *testing.T) {
		out := []byte(`{
			"streams": [
				{"codec_type": "audio", "duration": "12.0"},
				{"codec_type": "video", "width": 720, "height": 1280, "duration": "45.5"}
			],
			"format": {"duration": "46.0"}
		}`)
		w, h, d, err := parseProbeOutput(out)
		require.NoError(t, err)
		require.Equal(t, 720, w)
		require.Equal(t, 1280, h)
		require.InDelta(t, 45.5, d, 0.001)
	})

	t.Run("falls back to format duration", func(t *testing.T) {
		out := []byte(`{
			"streams": [{"codec_type": "video", "width": 1080, "height": 1920}],
			"format": {"duration": "90.25"}
		}`)
		_, _, d, err := parseProbeOutput(out)
		require.NoError(t, err)
		require.InDelta(t, 90.25, d, 0.001)
	})

	t.Run("no video stream", func(t *testing.T) {
		out := []byte(`{"streams": [{"codec_type": "audio", "duration": "5"}], "format": {"duration": "5"}}`)
		_, _, _, err := parseProbeOutput(out)
		require.Error(t, err)
	})

	t.Run("zero dimensions", func(t *testing.T) {
		out := []byte(`{"streams": [{"codec_type": "video", "width": 0, "height": 0, "duration": "5"}], "format": {}}`)
		_, _, _, err := parseProbeOutput(out)
		require.Error(t, err)
	})

	t.Run("no usable duration", func(t *testing.T) {
		out := []byte(`{"streams": [{"codec_type": "video", "width": 720, "height": 1280}], "format": {}}`)
		_, _, _, err := parseProbeOutput(out)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, _, err := parseProbeOutput([]byte("not json at all"))
		require.Error(t, err)
	})
}

func TestProbe_FallsBackToDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Video.FFprobeBin = "/nonexistent/ffprobe"
	cfg.Video.FrameWidth = 1080
	cfg.Video.FrameHeight = 1920
	cfg.Video.MaxDurationSec = 60

	p := NewProber(cfg)
	w, h, d := p.Probe(context.Background(), "whatever.mp4")
	require.Equal(t, 1080, w)
	require.Equal(t, 1920, h)
	require.InDelta(t, 60.0, d, 0.001)
}
