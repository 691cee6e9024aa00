package types

// Hook is one marketing caption in the corpus, tagged with an emotional category.
// UsedAt is empty while the hook sits in the active pool and carries a unique
// marker once the hook has been consumed by a finished video.
type Hook struct {
	Text    string `json:"text"`
	Emotion string `json:"emotion"`
	UsedAt  string `json:"used_at,omitempty"`
}

// GenerateResult describes one finished composition
type GenerateResult struct {
	OutputPath  string  `json:"output_path"`
	OutputName  string  `json:"output_name"`
	HookText    string  `json:"hook_text"`
	Emotion     string  `json:"emotion"`
	DurationSec float64 `json:"duration_sec"`
}

// BatchResult aggregates one batch run
type BatchResult struct {
	RunID       string            `json:"run_id"`
	ArchivePath string            `json:"archive_path"`
	Generated   []*GenerateResult `json:"generated"`
	FailedCount int               `json:"failed_count"`
}
