package hooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"

	"github.com/GEEflies/automation/config"
	"github.com/GEEflies/automation/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrEmptyCorpus means there is no active hook left to select
var ErrEmptyCorpus = errors.New("no hooks available in the active pool")

// Store owns the two persisted hook pools: active (selectable) and used
// (retired, most-recent-first). All access goes through one mutex so a
// single process never double-selects or double-commits a hook. Pools are
// re-read from disk per operation; the files stay the source of truth.
type Store struct {
	mu       sync.Mutex
	cfg      *config.Config
	reserved map[string]bool // hook text -> held by an in-flight composition
}

// Reservation holds a hook taken out of circulation while a composition runs.
// Commit retires it for good; Release puts it back.
type Reservation struct {
	Hook types.Hook
}

// NewStore creates a Store over the configured pool files
func NewStore(cfg *config.Config) *Store {
	return &Store{
		cfg:      cfg,
		reserved: make(map[string]bool),
	}
}

// Active returns a snapshot of the active pool
func (s *Store) Active() []types.Hook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadActive()
}

// Used returns a snapshot of the used pool
func (s *Store) Used() []types.Hook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUsed()
}

// SelectAndReserve atomically picks one active hook whose category is in the
// wanted set and reserves it until Commit or Release. When nothing matches
// the wanted set the whole pool is eligible; when the pool itself is empty
// (or fully reserved) it returns ErrEmptyCorpus. The pick among candidates
// is uniform-random so usage spreads across the corpus.
func (s *Store) SelectAndReserve(wanted []Emotion) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pool []types.Hook
	for _, h := range s.loadActive() {
		if s.reserved[h.Text] {
			continue
		}
		pool = append(pool, h)
	}
	if len(pool) == 0 {
		return nil, ErrEmptyCorpus
	}

	candidates := filterByEmotion(pool, wanted)
	if len(candidates) == 0 {
		log.Warn().
			Str("component", "hooks").
			Str("reason", "emotion_fallback").
			Strs("wanted", labelList(wanted)).
			Int("pool_size", len(pool)).
			Msg("no active hook matches the requested categories, selecting from the full pool")
		candidates = pool
	}

	pick := candidates[rand.Intn(len(candidates))]
	s.reserved[pick.Text] = true

	log.Info().
		Str("component", "hooks").
		Str("emotion", pick.Emotion).
		Str("text", truncate(pick.Text, 60)).
		Msg("hook reserved")
	return &Reservation{Hook: pick}, nil
}

// Commit retires a reserved hook: removed from the active sequence, stamped
// with a fresh used_at marker, prepended to the used sequence, both files
// persisted. Invoked once per successful composition, never speculatively.
func (s *Store) Commit(res *Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, res.Hook.Text)

	active := s.loadActive()
	used := s.loadUsed()

	idx := -1
	for i, h := range active {
		if h.Text == res.Hook.Text {
			idx = i
			break
		}
	}
	if idx >= 0 {
		active = append(active[:idx], active[idx+1:]...)
	}

	stamped := res.Hook
	stamped.UsedAt = uuid.NewString()
	used = append([]types.Hook{stamped}, used...)

	if active == nil {
		active = []types.Hook{}
	}
	if err := saveJSON(s.cfg.Paths.HooksFile, active); err != nil {
		return fmt.Errorf("persist active pool: %w", err)
	}
	if err := saveJSON(s.cfg.Paths.UsedHooksFile, used); err != nil {
		// The active write already landed, so the hook is out of rotation
		// but unrecorded in the used pool. Accepted asymmetry.
		return fmt.Errorf("persist used pool: %w", err)
	}
	return nil
}

// Release returns a reserved hook to circulation without touching disk.
// This is the failure path: a hook whose composition failed stays active.
func (s *Store) Release(res *Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, res.Hook.Text)
}

func filterByEmotion(pool []types.Hook, wanted []Emotion) []types.Hook {
	if len(wanted) == 0 {
		return nil
	}
	wantedSet := make(map[Emotion]bool, len(wanted))
	for _, e := range wanted {
		wantedSet[e] = true
	}
	var out []types.Hook
	for _, h := range pool {
		if wantedSet[Parse(h.Emotion)] {
			out = append(out, h)
		}
	}
	return out
}

// loadActive reads the active pool. A missing or malformed file yields an
// empty pool with a warning, never an error: the pipeline keeps running and
// fails later with ErrEmptyCorpus if there is truly nothing to select.
func (s *Store) loadActive() []types.Hook {
	data, err := os.ReadFile(s.cfg.Paths.HooksFile)
	if err != nil {
		log.Warn().
			Str("component", "hooks").
			Str("reason", "store_load_failed").
			Str("path", s.cfg.Paths.HooksFile).
			Err(err).
			Msg("could not read the active hook file, treating the pool as empty")
		return nil
	}
	pool, err := decodeHooks(data)
	if err != nil {
		log.Warn().
			Str("component", "hooks").
			Str("reason", "store_load_failed").
			Str("path", s.cfg.Paths.HooksFile).
			Err(err).
			Msg("active hook file is malformed, treating the pool as empty")
		return nil
	}
	return pool
}

// loadUsed reads the used pool. An absent file is the first-run case and
// yields an empty pool without noise.
func (s *Store) loadUsed() []types.Hook {
	data, err := os.ReadFile(s.cfg.Paths.UsedHooksFile)
	if err != nil {
		return nil
	}
	var used []types.Hook
	if err := json.Unmarshal(data, &used); err != nil {
		log.Warn().
			Str("component", "hooks").
			Str("reason", "store_load_failed").
			Str("path", s.cfg.Paths.UsedHooksFile).
			Err(err).
			Msg("used hook file is malformed, treating it as empty")
		return nil
	}
	return used
}

// decodeHooks accepts both corpus shapes: objects with text/emotion fields
// and bare caption strings from the legacy format. Emotions normalize to
// canonical labels, texts are trimmed, empty and unparseable entries are
// dropped.
func decodeHooks(data []byte) ([]types.Hook, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var out []types.Hook
	for _, entry := range raw {
		var text string
		if err := json.Unmarshal(entry, &text); err == nil {
			text = strings.TrimSpace(text)
			if text != "" {
				out = append(out, types.Hook{Text: text, Emotion: General.Label()})
			}
			continue
		}

		var h types.Hook
		if err := json.Unmarshal(entry, &h); err != nil {
			continue
		}
		h.Text = strings.TrimSpace(h.Text)
		if h.Text == "" {
			continue
		}
		h.Emotion = Parse(h.Emotion).Label()
		out = append(out, h)
	}
	return out, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func labelList(emotions []Emotion) []string {
	out := make([]string, len(emotions))
	for i, e := range emotions {
		out[i] = e.Label()
	}
	return out
}

// truncate shortens s to n runes so multi-byte captions stay valid UTF-8
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
