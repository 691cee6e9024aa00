package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/GEEflies/automation/01_hooks"
	"github.com/GEEflies/automation/config"

	"github.com/rs/zerolog/log"
)

// New builds the HTTP server around the store and the generation pipeline.
// Shutdown is owned by the caller.
func New(cfg *config.Config, store *hooks.Store, gen Generator, batcher Batcher) *http.Server {
	handlers := NewHandlers(cfg, store, gen, batcher)

	mux := http.NewServeMux()
	mux.HandleFunc("/upload-video", handlers.HandleUpload)
	mux.HandleFunc("/batch-upload", handlers.HandleBatchUpload)
	mux.HandleFunc("/download/", handlers.HandleDownload)
	mux.HandleFunc("/hooks", handlers.HandleHooks)
	mux.HandleFunc("/hooks/used", handlers.HandleUsedHooks)
	mux.HandleFunc("/healthz", handlers.HandleHealth)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: requestLogger(mux),
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("component", "server").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}
