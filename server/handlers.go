package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/GEEflies/automation/01_hooks"
	"github.com/GEEflies/automation/05_batch"
	"github.com/GEEflies/automation/config"
	"github.com/GEEflies/automation/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Generator is the single-clip pipeline behind /upload-video
type Generator interface {
	Generate(ctx context.Context, sourcePath string, wanted []hooks.Emotion) (*types.GenerateResult, error)
}

// Batcher drives multi-clip runs behind /batch-upload
type Batcher interface {
	Run(ctx context.Context, items []batch.Item) (*types.BatchResult, error)
}

type Handlers struct {
	cfg     *config.Config
	store   *hooks.Store
	gen     Generator
	batcher Batcher
}

func NewHandlers(cfg *config.Config, store *hooks.Store, gen Generator, batcher Batcher) *Handlers {
	return &Handlers{
		cfg:     cfg,
		store:   store,
		gen:     gen,
		batcher: batcher,
	}
}

// HandleUpload accepts one multipart clip under "video", runs a composition
// and answers with the download URL plus the hook that was burned in. The
// echoed emotion is the consumed hook's, not the requested one, so fallback
// picks are visible to the caller.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())

	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no video file"})
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no selected file"})
		return
	}

	uploadPath, err := h.saveUpload(file, header.Filename, "upload")
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("could not persist upload")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not persist upload"})
		return
	}
	defer os.Remove(uploadPath)

	wanted := hooks.Requested(r.FormValue("emotion"), r.FormValue("reaction"))
	res, err := h.gen.Generate(r.Context(), uploadPath, wanted)
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("generation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"video_url": "/download/" + res.OutputName,
		"hook_text": res.HookText,
		"emotion":   res.Emotion,
	})
}

// HandleBatchUpload accepts video1..videoN multipart slots with optional
// emotion1..emotionN labels and streams back the archive of everything that
// survived. Missing slots are skipped.
func (h *Handlers) HandleBatchUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.Batch.MaxItems)*h.maxUploadBytes())

	var items []batch.Item
	var saved []string
	defer func() {
		for _, p := range saved {
			os.Remove(p)
		}
	}()

	for i := 1; i <= h.cfg.Batch.MaxItems; i++ {
		file, header, err := r.FormFile(fmt.Sprintf("video%d", i))
		if err != nil {
			continue
		}
		if header.Filename == "" {
			file.Close()
			continue
		}
		path, err := h.saveUpload(file, header.Filename, fmt.Sprintf("batch_%d", i))
		file.Close()
		if err != nil {
			log.Error().Str("component", "server").Err(err).Msg("could not persist batch upload")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not persist upload"})
			return
		}
		saved = append(saved, path)
		items = append(items, batch.Item{
			SourcePath: path,
			Emotions:   hooks.Requested(r.FormValue(fmt.Sprintf("emotion%d", i)), ""),
		})
	}

	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no video files"})
		return
	}

	res, err := h.batcher.Run(r.Context(), items)
	if err != nil {
		log.Error().Str("component", "server").Err(err).Msg("batch run failed")
		if errors.Is(err, batch.ErrNoOutputs) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "no videos processed successfully"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "batch failed"})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(res.ArchivePath)))
	http.ServeFile(w, r, res.ArchivePath)
}

// HandleDownload serves one generated file from the output dir. The name is
// reduced to its base so the path cannot escape the directory.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(strings.TrimPrefix(r.URL.Path, "/download/"))
	if name == "." || name == "/" || name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing filename"})
		return
	}
	path := filepath.Join(h.cfg.Paths.Output, name)
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such file"})
		return
	}
	http.ServeFile(w, r, path)
}

func (h *Handlers) HandleHooks(w http.ResponseWriter, r *http.Request) {
	pool := h.store.Active()
	if pool == nil {
		pool = []types.Hook{}
	}
	writeJSON(w, http.StatusOK, pool)
}

func (h *Handlers) HandleUsedHooks(w http.ResponseWriter, r *http.Request) {
	pool := h.store.Used()
	if pool == nil {
		pool = []types.Hook{}
	}
	writeJSON(w, http.StatusOK, pool)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := exec.LookPath(h.cfg.Video.FFmpegBin)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"encoder_ok": err == nil,
		"hooks_left": len(h.store.Active()),
	})
}

// saveUpload copies one multipart part into the uploads dir under a unique
// name, keeping the client's extension (".mp4" when absent).
func (h *Handlers) saveUpload(src multipart.File, originalName, prefix string) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".mp4"
	}
	if err := os.MkdirAll(h.cfg.Paths.Uploads, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(h.cfg.Paths.Uploads, fmt.Sprintf("%s_%s%s", prefix, uuid.NewString()[:8], ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (h *Handlers) maxUploadBytes() int64 {
	return int64(h.cfg.Server.MaxUploadMB) << 20
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
