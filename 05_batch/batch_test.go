package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/GEEflies/automation/01_hooks"
	"github.com/GEEflies/automation/config"
	"github.com/GEEflies/automation/types"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	outDir  string
	failOn  map[int]bool
	calls   int
	sources []string
}

func (g *stubGenerator) Generate(ctx context.Context, sourcePath string, wanted []hooks.Emotion) (*types.GenerateResult, error) {
	g.calls++
	g.sources = append(g.sources, sourcePath)
	if g.failOn[g.calls] {
		return nil, errors.New("encoder blew up")
	}
	name := fmt.Sprintf("clip_%d.mp4", g.calls)
	path := filepath.Join(g.outDir, name)
	if err := os.WriteFile(path, []byte(sourcePath), 0644); err != nil {
		return nil, err
	}
	return &types.GenerateResult{
		OutputPath:  path,
		OutputName:  name,
		HookText:    "caption",
		Emotion:     "General",
		DurationSec: 10,
	}, nil
}

func testOrchestrator(t *testing.T, failOn map[int]bool) (*Orchestrator, *stubGenerator, *config.Config) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Paths.Output = t.TempDir()
	cfg.Batch.MaxItems = 3
	gen := &stubGenerator{outDir: cfg.Paths.Output, failOn: failOn}
	return New(cfg, gen), gen, cfg
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	entries := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = string(data)
	}
	return entries
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestRun_ArchivesOutputsInInputOrder(t *testing.T) {
	o, gen, _ := testOrchestrator(t, nil)

	res, err := o.Run(context.Background(), []Item{
		{SourcePath: "/in/a.mp4"},
		{SourcePath: "/in/b.mp4", Emotions: []hooks.Emotion{hooks.Shocked}},
		{SourcePath: "/in/c.mp4"},
	})
	require.NoError(t, err)
	require.Len(t, res.Generated, 3)
	require.Zero(t, res.FailedCount)
	require.NotEmpty(t, res.RunID)
	require.FileExists(t, res.ArchivePath)
	require.Equal(t, fmt.Sprintf("batch_%s.zip", res.RunID), filepath.Base(res.ArchivePath))

	require.Equal(t, []string{"/in/a.mp4", "/in/b.mp4", "/in/c.mp4"}, gen.sources)
	require.Equal(t, []string{"clip_1.mp4", "clip_2.mp4", "clip_3.mp4"}, archiveNames(t, res.ArchivePath))

	entries := readArchive(t, res.ArchivePath)
	require.Equal(t, "/in/b.mp4", entries["clip_2.mp4"])
}

func TestRun_SkipsFailedItems(t *testing.T) {
	o, _, _ := testOrchestrator(t, map[int]bool{2: true})

	res, err := o.Run(context.Background(), []Item{
		{SourcePath: "/in/a.mp4"},
		{SourcePath: "/in/b.mp4"},
		{SourcePath: "/in/c.mp4"},
	})
	require.NoError(t, err)
	require.Len(t, res.Generated, 2)
	require.Equal(t, 1, res.FailedCount)
	require.Equal(t, []string{"clip_1.mp4", "clip_3.mp4"}, archiveNames(t, res.ArchivePath))
}

func TestRun_AllFailed(t *testing.T) {
	o, _, cfg := testOrchestrator(t, map[int]bool{1: true, 2: true})

	_, err := o.Run(context.Background(), []Item{
		{SourcePath: "/in/a.mp4"},
		{SourcePath: "/in/b.mp4"},
	})
	require.ErrorIs(t, err, ErrNoOutputs)

	archives, err := filepath.Glob(filepath.Join(cfg.Paths.Output, "batch_*.zip"))
	require.NoError(t, err)
	require.Empty(t, archives)
}

func TestRun_TruncatesToMaxItems(t *testing.T) {
	o, gen, _ := testOrchestrator(t, nil)

	res, err := o.Run(context.Background(), []Item{
		{SourcePath: "/in/a.mp4"},
		{SourcePath: "/in/b.mp4"},
		{SourcePath: "/in/c.mp4"},
		{SourcePath: "/in/d.mp4"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, gen.calls)
	require.Len(t, res.Generated, 3)
	require.NotContains(t, gen.sources, "/in/d.mp4")
}
