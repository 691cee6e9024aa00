package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 500, cfg.Server.MaxUploadMB)
	require.Equal(t, 1080, cfg.Video.FrameWidth)
	require.Equal(t, 1920, cfg.Video.FrameHeight)
	require.Equal(t, 60.0, cfg.Video.MaxDurationSec)
	require.Equal(t, "ultrafast", cfg.Video.Preset)
	require.Equal(t, "ffmpeg", cfg.Video.FFmpegBin)
	require.Equal(t, "ffprobe", cfg.Video.FFprobeBin)
	require.Equal(t, 110.0, cfg.Overlay.FontSize)
	require.Equal(t, 30, cfg.Overlay.WrapChars)
	require.Equal(t, 5, cfg.Overlay.StrokeWidth)
	require.Equal(t, 0.25, cfg.Overlay.TopOffsetRatio)
	require.Equal(t, 3, cfg.Batch.MaxItems)
	require.Equal(t, "top_hooks.json", cfg.Paths.HooksFile)
	require.Equal(t, "used_hooks.json", cfg.Paths.UsedHooksFile)
	require.Equal(t, "uploads", cfg.Paths.Uploads)
	require.Equal(t, "outputs", cfg.Paths.Output)
	require.Equal(t, "tmp", cfg.Paths.Temp)
}

func TestLoad_ReadsValues(t *testing.T) {
	raw := `
server:
  port: 8000
  max_upload_mb: 100
video:
  frame_width: 720
  frame_height: 1280
  max_duration_sec: 30
  preset: veryfast
overlay:
  font_size: 80
  wrap_chars: 24
  font_paths:
    - /usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf
batch:
  max_items: 2
schedule:
  daily_cron: "0 9 * * *"
  drop_dir: drop
paths:
  hooks_file: data/top_hooks.json
`
	cfg, err := Load(writeConfig(t, raw))
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, 100, cfg.Server.MaxUploadMB)
	require.Equal(t, 720, cfg.Video.FrameWidth)
	require.Equal(t, 1280, cfg.Video.FrameHeight)
	require.Equal(t, 30.0, cfg.Video.MaxDurationSec)
	require.Equal(t, "veryfast", cfg.Video.Preset)
	require.Equal(t, 80.0, cfg.Overlay.FontSize)
	require.Equal(t, 24, cfg.Overlay.WrapChars)
	require.Equal(t, []string{"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"}, cfg.Overlay.FontPaths)
	require.Equal(t, 2, cfg.Batch.MaxItems)
	require.Equal(t, "0 9 * * *", cfg.Schedule.DailyCron)
	require.Equal(t, "drop", cfg.Schedule.DropDir)
	require.Equal(t, "data/top_hooks.json", cfg.Paths.HooksFile)
}

func TestLoad_RejectsUnknownPreset(t *testing.T) {
	_, err := Load(writeConfig(t, "video:\n  preset: turbo\n"))
	require.ErrorContains(t, err, "preset")
}

func TestLoad_RejectsNegativeDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "video:\n  max_duration_sec: -5\n"))
	require.ErrorContains(t, err, "max_duration_sec")
}

func TestLoad_RejectsBadOffsetRatio(t *testing.T) {
	_, err := Load(writeConfig(t, "overlay:\n  top_offset_ratio: 1.5\n"))
	require.ErrorContains(t, err, "top_offset_ratio")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
