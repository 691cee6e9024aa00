package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Video    VideoConfig    `yaml:"video"`
	Overlay  OverlayConfig  `yaml:"overlay"`
	Batch    BatchConfig    `yaml:"batch"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Paths    PathsConfig    `yaml:"paths"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MaxUploadMB int `yaml:"max_upload_mb"`
}

type VideoConfig struct {
	FrameWidth     int     `yaml:"frame_width"`
	FrameHeight    int     `yaml:"frame_height"`
	MaxDurationSec float64 `yaml:"max_duration_sec"`
	Preset         string  `yaml:"preset"`
	FFmpegBin      string  `yaml:"ffmpeg_bin"`
	FFprobeBin     string  `yaml:"ffprobe_bin"`
}

type OverlayConfig struct {
	FontSize       float64  `yaml:"font_size"`
	WrapChars      int      `yaml:"wrap_chars"`
	StrokeWidth    int      `yaml:"stroke_width"`
	TopOffsetRatio float64  `yaml:"top_offset_ratio"`
	FontPaths      []string `yaml:"font_paths"`
}

type BatchConfig struct {
	MaxItems int `yaml:"max_items"`
}

type ScheduleConfig struct {
	DailyCron string `yaml:"daily_cron"`
	DropDir   string `yaml:"drop_dir"`
}

type PathsConfig struct {
	HooksFile     string `yaml:"hooks_file"`
	UsedHooksFile string `yaml:"used_hooks_file"`
	Uploads       string `yaml:"uploads"`
	Output        string `yaml:"output"`
	Temp          string `yaml:"temp"`
}

// allowedPresets are the libx264 speed presets the encoder accepts
var allowedPresets = map[string]bool{
	"ultrafast": true,
	"superfast": true,
	"veryfast":  true,
	"faster":    true,
	"fast":      true,
	"medium":    true,
	"slow":      true,
}

// Load reads config.yaml, applies defaults for zeroed tunables and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 500
	}
	if c.Video.FrameWidth == 0 {
		c.Video.FrameWidth = 1080
	}
	if c.Video.FrameHeight == 0 {
		c.Video.FrameHeight = 1920
	}
	if c.Video.MaxDurationSec == 0 {
		c.Video.MaxDurationSec = 60
	}
	if c.Video.Preset == "" {
		c.Video.Preset = "ultrafast"
	}
	if c.Video.FFmpegBin == "" {
		c.Video.FFmpegBin = "ffmpeg"
	}
	if c.Video.FFprobeBin == "" {
		c.Video.FFprobeBin = "ffprobe"
	}
	if c.Overlay.FontSize == 0 {
		c.Overlay.FontSize = 110
	}
	if c.Overlay.WrapChars == 0 {
		c.Overlay.WrapChars = 30
	}
	if c.Overlay.StrokeWidth == 0 {
		c.Overlay.StrokeWidth = 5
	}
	if c.Overlay.TopOffsetRatio == 0 {
		c.Overlay.TopOffsetRatio = 0.25
	}
	if c.Batch.MaxItems == 0 {
		c.Batch.MaxItems = 3
	}
	if c.Paths.HooksFile == "" {
		c.Paths.HooksFile = "top_hooks.json"
	}
	if c.Paths.UsedHooksFile == "" {
		c.Paths.UsedHooksFile = "used_hooks.json"
	}
	if c.Paths.Uploads == "" {
		c.Paths.Uploads = "uploads"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "outputs"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "tmp"
	}
}

func (c *Config) validate() error {
	if !allowedPresets[c.Video.Preset] {
		return fmt.Errorf("unknown encoder preset %q", c.Video.Preset)
	}
	if c.Video.MaxDurationSec < 0 {
		return fmt.Errorf("max_duration_sec must be positive, got %v", c.Video.MaxDurationSec)
	}
	if c.Overlay.TopOffsetRatio < 0 || c.Overlay.TopOffsetRatio > 1 {
		return fmt.Errorf("top_offset_ratio must be between 0 and 1, got %v", c.Overlay.TopOffsetRatio)
	}
	return nil
}
