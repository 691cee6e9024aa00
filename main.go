package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/GEEflies/automation/01_hooks"
	"github.com/GEEflies/automation/04_generate"
	"github.com/GEEflies/automation/05_batch"
	"github.com/GEEflies/automation/config"
	"github.com/GEEflies/automation/server"
	"github.com/GEEflies/automation/types"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration")
	serveFlag := flag.Bool("serve", false, "Run the HTTP server (the default when no mode flag is given)")
	videoFlag := flag.String("video", "", "Generate one clip from this source video and exit")
	emotionFlag := flag.String("emotion", "", "Emotion label for -video / -batch-dir")
	reactionFlag := flag.String("reaction", "", "Creator reaction label, expands to an emotion set")
	batchDirFlag := flag.String("batch-dir", "", "Run a batch over the videos in this directory and exit")
	importFlag := flag.String("import", "", "Import a raw hook corpus file into the active pool and exit")
	verboseFlag := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	// Load .env (local dev only)
	_ = godotenv.Load()
	setupLogging(*verboseFlag)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// Ensure required dirs exist
	dirs := []string{cfg.Paths.Uploads, cfg.Paths.Output, cfg.Paths.Temp}
	if cfg.Schedule.DropDir != "" {
		dirs = append(dirs, cfg.Schedule.DropDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("could not create dir")
		}
	}

	store := hooks.NewStore(cfg)
	gen := generate.New(cfg, store)
	batcher := batch.New(cfg, gen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *serveFlag:
		runServer(ctx, cfg, store, gen, batcher)
	case *importFlag != "":
		runImport(store, *importFlag)
	case *videoFlag != "":
		runOnce(ctx, gen, *videoFlag, *emotionFlag, *reactionFlag)
	case *batchDirFlag != "":
		runBatchDir(ctx, cfg, batcher, *batchDirFlag, *emotionFlag)
	default:
		runServer(ctx, cfg, store, gen, batcher)
	}
}

func runServer(ctx context.Context, cfg *config.Config, store *hooks.Store, gen *generate.Generator, batcher *batch.Orchestrator) {
	if cfg.Schedule.DailyCron != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.Schedule.DailyCron, func() {
			res, err := batchDirectory(ctx, batcher, cfg.Schedule.DropDir, "")
			if err != nil {
				log.Warn().Str("component", "main").Err(err).Msg("scheduled batch failed")
				return
			}
			log.Info().
				Str("component", "main").
				Str("archive", res.ArchivePath).
				Int("failed", res.FailedCount).
				Msg("✅ scheduled batch archive ready")
		})
		if err != nil {
			log.Fatal().Err(err).Str("spec", cfg.Schedule.DailyCron).Msg("invalid cron spec")
		}
		c.Start()
		defer c.Stop()
		log.Info().
			Str("component", "main").
			Str("spec", cfg.Schedule.DailyCron).
			Str("drop_dir", cfg.Schedule.DropDir).
			Msg("⏰ daily batch scheduled")
	}

	srv := server.New(cfg, store, gen, batcher)
	go func() {
		log.Info().Str("component", "main").Str("addr", srv.Addr).Msg("🎬 hook ad server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Str("component", "main").Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}

func runOnce(ctx context.Context, gen *generate.Generator, videoPath, emotion, reaction string) {
	res, err := gen.Generate(ctx, videoPath, hooks.Requested(emotion, reaction))
	if err != nil {
		log.Fatal().Err(err).Str("video", videoPath).Msg("generation failed")
	}
	log.Info().
		Str("output", res.OutputPath).
		Str("hook", res.HookText).
		Str("emotion", res.Emotion).
		Msg("✅ clip ready")
	fmt.Println(res.OutputPath)
}

func runBatchDir(ctx context.Context, cfg *config.Config, batcher *batch.Orchestrator, dir, emotion string) {
	res, err := batchDirectory(ctx, batcher, dir, emotion)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("batch failed")
	}
	log.Info().
		Str("archive", res.ArchivePath).
		Int("generated", len(res.Generated)).
		Int("failed", res.FailedCount).
		Msg("✅ batch archive ready")
	fmt.Println(res.ArchivePath)
}

// batchDirectory queues every video file found in dir, in lexical order, and
// hands the lot to the orchestrator.
func batchDirectory(ctx context.Context, batcher *batch.Orchestrator, dir, emotion string) (*types.BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read batch dir: %w", err)
	}
	var items []batch.Item
	for _, e := range entries {
		if e.IsDir() || !isVideoFile(e.Name()) {
			continue
		}
		items = append(items, batch.Item{
			SourcePath: filepath.Join(dir, e.Name()),
			Emotions:   hooks.Requested(emotion, ""),
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no video files in %s", dir)
	}
	return batcher.Run(ctx, items)
}

func isVideoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".m4v", ".webm", ".mkv":
		return true
	}
	return false
}

func runImport(store *hooks.Store, path string) {
	added, skipped, err := store.Import(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("import failed")
	}
	log.Info().
		Int("added", added).
		Int("skipped", skipped).
		Msg("✅ corpus import complete")
}

// setupLogging configures zerolog: pretty console output, info level unless
// -verbose.
func setupLogging(verbose bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
