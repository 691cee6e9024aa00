package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/GEEflies/automation/01_hooks"
	"github.com/GEEflies/automation/config"
	"github.com/GEEflies/automation/types"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// ErrNoOutputs means every item in the batch failed, so there is nothing to archive
var ErrNoOutputs = errors.New("batch produced no outputs")

// Item is one source clip queued for composition
type Item struct {
	SourcePath string
	Emotions   []hooks.Emotion
}

// Generator is the single-clip pipeline the orchestrator drives
type Generator interface {
	Generate(ctx context.Context, sourcePath string, wanted []hooks.Emotion) (*types.GenerateResult, error)
}

// Orchestrator runs up to cfg.Batch.MaxItems compositions sequentially and
// bundles the surviving outputs into one zip archive.
type Orchestrator struct {
	cfg *config.Config
	gen Generator
}

func New(cfg *config.Config, gen Generator) *Orchestrator {
	return &Orchestrator{cfg: cfg, gen: gen}
}

// Run processes the items in order. A failed item is logged and skipped, it
// never aborts the rest of the batch. ErrNoOutputs is returned when every
// item failed; the archive is only written once at least one clip survived.
func (o *Orchestrator) Run(ctx context.Context, items []Item) (*types.BatchResult, error) {
	runID := uuid.NewString()[:8]
	if len(items) > o.cfg.Batch.MaxItems {
		log.Warn().
			Str("component", "batch").
			Str("run_id", runID).
			Int("submitted", len(items)).
			Int("max", o.cfg.Batch.MaxItems).
			Msg("batch truncated to the configured limit")
		items = items[:o.cfg.Batch.MaxItems]
	}

	result := &types.BatchResult{RunID: runID}
	for i, item := range items {
		res, err := o.gen.Generate(ctx, item.SourcePath, item.Emotions)
		if err != nil {
			result.FailedCount++
			log.Warn().
				Str("component", "batch").
				Str("run_id", runID).
				Int("item", i+1).
				Str("source", filepath.Base(item.SourcePath)).
				Err(err).
				Msg("batch item failed, continuing")
			continue
		}
		result.Generated = append(result.Generated, res)
	}

	if len(result.Generated) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNoOutputs)
	}

	archive := filepath.Join(o.cfg.Paths.Output, fmt.Sprintf("batch_%s.zip", runID))
	if err := writeArchive(archive, result.Generated); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	result.ArchivePath = archive

	log.Info().
		Str("component", "batch").
		Str("run_id", runID).
		Int("generated", len(result.Generated)).
		Int("failed", result.FailedCount).
		Str("archive", filepath.Base(archive)).
		Msg("✅ batch complete")
	return result, nil
}

// writeArchive bundles the generated clips, in input order, under their output names
func writeArchive(path string, generated []*types.GenerateResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)
	for _, g := range generated {
		if err := addClip(zw, g); err != nil {
			zw.Close()
			f.Close()
			os.Remove(path)
			return err
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func addClip(zw *zip.Writer, g *types.GenerateResult) error {
	src, err := os.Open(g.OutputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", g.OutputName, err)
	}
	defer src.Close()

	w, err := zw.Create(g.OutputName)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
