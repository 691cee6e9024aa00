package hooks

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Import merges a raw corpus file into the active pool. Raw files come from
// the hook-generation side and may mix bare caption strings with tagged
// objects carrying any legacy emotion spelling; every entry is normalized
// through the category table. Entries whose text already exists in either
// pool, or earlier in the same file, are skipped so reruns are harmless.
// Returns how many hooks were added and how many were skipped as duplicates.
func (s *Store) Import(rawPath string) (added, skipped int, err error) {
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return 0, 0, fmt.Errorf("read raw corpus: %w", err)
	}
	incoming, err := decodeHooks(data)
	if err != nil {
		return 0, 0, fmt.Errorf("parse raw corpus: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.loadActive()

	seen := make(map[string]bool)
	for _, h := range active {
		seen[h.Text] = true
	}
	for _, h := range s.loadUsed() {
		seen[h.Text] = true
	}

	for _, h := range incoming {
		if seen[h.Text] {
			skipped++
			continue
		}
		seen[h.Text] = true
		active = append(active, h)
		added++
	}

	if added > 0 {
		if err := saveJSON(s.cfg.Paths.HooksFile, active); err != nil {
			return 0, 0, fmt.Errorf("persist active pool: %w", err)
		}
	}

	log.Info().
		Str("component", "hooks").
		Str("source", rawPath).
		Int("added", added).
		Int("skipped", skipped).
		Msg("corpus import finished")
	return added, skipped, nil
}
