package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/GEEflies/automation/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrRender means the overlay image could not be produced
var ErrRender = errors.New("overlay render failed")

// lineSpacing is the gap in pixels between wrapped caption lines
const lineSpacing = 4

// Renderer rasterizes hook captions into frame-sized transparent overlays:
// white fill, black outline, wrapped to a fixed character width, centered
// horizontally and anchored at the upper quarter of the frame so the caption
// sits above a subject framed in the lower half.
type Renderer struct {
	cfg *config.Config
}

// New creates a new overlay Renderer
func New(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render draws text onto a transparent canvas of exactly frameW x frameH and
// writes it to a uniquely named PNG under the temp dir. The caller owns the
// file and deletes it once the composition is done.
func (r *Renderer) Render(text string, frameW, frameH int) (string, error) {
	face, err := r.loadFace()
	if err != nil {
		return "", fmt.Errorf("%w: no usable font face: %v", ErrRender, err)
	}
	defer face.Close()

	lines := wrap(text, r.cfg.Overlay.WrapChars)
	canvas := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	r.drawCaption(canvas, face, lines, frameW, frameH)

	if err := os.MkdirAll(r.cfg.Paths.Temp, 0755); err != nil {
		return "", fmt.Errorf("%w: create temp dir: %v", ErrRender, err)
	}
	outPath := filepath.Join(r.cfg.Paths.Temp, fmt.Sprintf("overlay_%s.png", uuid.NewString()[:8]))
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: create overlay file: %v", ErrRender, err)
	}
	if err := png.Encode(f, canvas); err != nil {
		f.Close()
		os.Remove(outPath)
		return "", fmt.Errorf("%w: encode overlay png: %v", ErrRender, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("%w: close overlay file: %v", ErrRender, err)
	}

	log.Debug().
		Str("component", "overlay").
		Str("path", outPath).
		Int("lines", len(lines)).
		Msg("overlay rendered")
	return outPath, nil
}

// drawCaption paints the wrapped lines: a black pass offset in a disk around
// the glyphs for the outline, then the white fill on top. Each line is
// centered in the frame; the block's vertical center lands at the configured
// top offset ratio.
func (r *Renderer) drawCaption(dst *image.RGBA, face font.Face, lines []string, frameW, frameH int) {
	if len(lines) == 0 {
		return
	}

	stroke := r.cfg.Overlay.StrokeWidth
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := ascent + metrics.Descent.Ceil()
	blockH := lineHeight*len(lines) + lineSpacing*(len(lines)-1) + 2*stroke

	anchorY := int(float64(frameH) * r.cfg.Overlay.TopOffsetRatio)
	top := anchorY - blockH/2
	if top < 0 {
		top = 0
	}

	fill := &font.Drawer{Dst: dst, Src: image.NewUniform(color.White), Face: face}
	outline := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: face}

	baseline := top + stroke + ascent
	for _, line := range lines {
		bounds, _ := fill.BoundString(line)
		lineW := (bounds.Max.X - bounds.Min.X).Ceil()
		x := (frameW - lineW) / 2

		for dy := -stroke; dy <= stroke; dy++ {
			for dx := -stroke; dx <= stroke; dx++ {
				if dx*dx+dy*dy > stroke*stroke {
					continue
				}
				outline.Dot = fixed.P(x+dx, baseline+dy)
				outline.DrawString(line)
			}
		}
		fill.Dot = fixed.P(x, baseline)
		fill.DrawString(line)

		baseline += lineHeight + lineSpacing
	}
}

// loadFace walks the configured font paths and returns the first face that
// parses. When none resolve it degrades to the embedded bold face instead of
// failing; rendering never aborts over fonts.
func (r *Renderer) loadFace() (font.Face, error) {
	opts := &opentype.FaceOptions{
		Size:    r.cfg.Overlay.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}

	for _, path := range r.cfg.Overlay.FontPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(parsed, opts)
		if err != nil {
			continue
		}
		log.Debug().Str("component", "overlay").Str("font", path).Msg("font loaded")
		return face, nil
	}

	log.Warn().
		Str("component", "overlay").
		Str("reason", "font_fallback").
		Int("paths_tried", len(r.cfg.Overlay.FontPaths)).
		Msg("no configured font path resolved, using the embedded bold face")

	parsed, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, opts)
}

// wrap splits text into lines of at most width characters, breaking only on
// spaces. A single word longer than the limit gets its own line, emitted
// verbatim rather than truncated.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len([]rune(current))+1+len([]rune(word)) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
