package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/GEEflies/automation/01_hooks"
	"github.com/GEEflies/automation/02_overlay"
	"github.com/GEEflies/automation/03_compose"
	"github.com/GEEflies/automation/config"
	"github.com/GEEflies/automation/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OverlayRenderer rasterizes a caption into a frame-sized transparent image
type OverlayRenderer interface {
	Render(text string, frameW, frameH int) (string, error)
}

// SourceProber measures a source clip's geometry
type SourceProber interface {
	Probe(ctx context.Context, path string) (width, height int, duration float64)
}

// Encoder merges the overlay and the source into one output clip
type Encoder interface {
	Composite(ctx context.Context, sourcePath, overlayPath, outFile string, w, h int, duration float64) error
}

// Generator runs one composition end to end: reserve a hook, probe the
// source, rasterize the caption, drive the encoder, then retire the hook.
// One composition runs at a time process-wide; batch items and HTTP
// requests queue up behind the same mutex.
type Generator struct {
	mu       sync.Mutex
	cfg      *config.Config
	store    *hooks.Store
	renderer OverlayRenderer
	prober   SourceProber
	encoder  Encoder
}

// New wires a Generator with the real pipeline stages
func New(cfg *config.Config, store *hooks.Store) *Generator {
	return NewWithDependencies(cfg, store, overlay.New(cfg), compose.NewProber(cfg), compose.NewComposer(cfg))
}

// NewWithDependencies allows injecting custom stages (used for tests)
func NewWithDependencies(cfg *config.Config, store *hooks.Store, renderer OverlayRenderer, prober SourceProber, encoder Encoder) *Generator {
	return &Generator{
		cfg:      cfg,
		store:    store,
		renderer: renderer,
		prober:   prober,
		encoder:  encoder,
	}
}

// Generate produces one captioned clip from sourcePath. The reserved hook is
// committed only after the encoder succeeds; any earlier failure releases it
// back to the active pool. The overlay temp file is deleted on every exit
// path.
func (g *Generator) Generate(ctx context.Context, sourcePath string, wanted []hooks.Emotion) (*types.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := g.store.SelectAndReserve(wanted)
	if err != nil {
		return nil, err
	}

	w, h, sourceDur := g.prober.Probe(ctx, sourcePath)
	duration := compose.EffectiveDuration(sourceDur, g.cfg.Video.MaxDurationSec)

	overlayPath, err := g.renderer.Render(res.Hook.Text, w, h)
	if err != nil {
		g.store.Release(res)
		return nil, fmt.Errorf("render overlay: %w", err)
	}
	defer func() {
		if err := os.Remove(overlayPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Str("component", "generate").Err(err).Msg("could not remove overlay temp file")
		}
	}()

	outName := fmt.Sprintf("hook_%s_%s.mp4", hooks.Parse(res.Hook.Emotion).Slug(), uuid.NewString()[:8])
	outFile := filepath.Join(g.cfg.Paths.Output, outName)

	if err := g.encoder.Composite(ctx, sourcePath, overlayPath, outFile, w, h, duration); err != nil {
		g.store.Release(res)
		return nil, fmt.Errorf("composite %s: %w", filepath.Base(sourcePath), err)
	}

	if err := g.store.Commit(res); err != nil {
		log.Warn().
			Str("component", "generate").
			Str("reason", "store_persist_failed").
			Err(err).
			Msg("hook commit failed, the clip was produced anyway; the failed pool write decides whether the hook re-enters rotation or drops unrecorded")
	}

	log.Info().
		Str("component", "generate").
		Str("output", outName).
		Str("emotion", res.Hook.Emotion).
		Float64("duration_sec", duration).
		Msg("✅ composition complete")

	return &types.GenerateResult{
		OutputPath:  outFile,
		OutputName:  outName,
		HookText:    res.Hook.Text,
		Emotion:     res.Hook.Emotion,
		DurationSec: duration,
	}, nil
}
