package photokit

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	tsfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// TextOptions styles a text sticker.
type TextOptions struct {
	// Size is the font size in points. Default 48.
	Size float64
	// DPI is the rasterization resolution. Default 72.
	DPI float64
	// Color is the glyph color. The zero value draws opaque black.
	Color color.NRGBA
	// Background fills the sticker behind the glyphs. Default transparent.
	Background color.NRGBA
	// Padding is the margin around the text in pixels. Default 8.
	Padding int
}

func (o TextOptions) withDefaults() TextOptions {
	if o.Size <= 0 {
		o.Size = 48
	}
	if o.DPI <= 0 {
		o.DPI = 72
	}
	if o.Color == (color.NRGBA{}) {
		o.Color = color.NRGBA{A: 255}
	}
	if o.Padding < 0 {
		o.Padding = 0
	} else if o.Padding == 0 {
		o.Padding = 8
	}
	return o
}

// stickerFont holds the two parsed views of the sticker typeface: go-text
// for shaping and sfnt for outlines and metrics. Both are read-only and
// safe for concurrent use.
type stickerFont struct {
	shape   *tsfont.Font
	outline *opentype.Font
}

var goRegular = sync.OnceValues(func() (*stickerFont, error) {
	face, err := tsfont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, err
	}
	outline, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &stickerFont{shape: face.Font, outline: outline}, nil
})

// HarfbuzzShaper keeps a scratch buffer and is not safe for concurrent use.
var shaperPool = sync.Pool{
	New: func() any { return &shaping.HarfbuzzShaper{} },
}

// placedGlyph is a shaped glyph with its pen position relative to the
// start of the line, in pixels. y grows upward, as in the shaper output.
type placedGlyph struct {
	gid  sfnt.GlyphIndex
	x, y float64
}

// RenderText rasterizes text into a sticker bitmap. Lines are separated by
// '\n'. Each line is split into bidi runs, shaped with HarfBuzz (kerning,
// ligatures, right-to-left scripts) and laid out left aligned. The text is
// NFC-normalized first so composed and decomposed input render identically.
func RenderText(text string, opts TextOptions) (*Pixmap, error) {
	text = norm.NFC.String(text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	opts = opts.withDefaults()

	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("photokit: parse font: %w", err)
	}

	px := opts.Size * opts.DPI / 72
	ppem := fixed.Int26_6(px * 64)
	var buf sfnt.Buffer
	metrics, err := f.outline.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("photokit: font metrics: %w", err)
	}
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	lines := strings.Split(text, "\n")
	shaped := make([][]placedGlyph, len(lines))
	width := 0.0
	for i, line := range lines {
		var adv float64
		shaped[i], adv = shapeLine(f.shape, line, ppem)
		width = max(width, adv)
	}

	pad := opts.Padding
	pm := NewPixmap(int(math.Ceil(width))+2*pad, lineHeight*len(lines)+2*pad)
	pm.Fill(opts.Background)

	ras := vector.NewRasterizer(pm.Width(), pm.Height())
	for i, glyphs := range shaped {
		baseline := float64(pad + i*lineHeight + ascent)
		for _, g := range glyphs {
			segs, err := f.outline.LoadGlyph(&buf, g.gid, ppem, nil)
			if err != nil {
				// Missing or color glyphs have no outline to draw.
				Logger().Debug("photokit: glyph skipped", "gid", g.gid, "err", err)
				continue
			}
			appendOutline(ras, segs, float64(pad)+g.x, baseline-g.y)
		}
	}
	ras.Draw(pm.ToImage(), pm.Bounds(), image.NewUniform(opts.Color), image.Point{})
	return pm, nil
}

// shapeLine shapes one line in visual order and returns its glyphs and
// total advance in pixels.
func shapeLine(f *tsfont.Font, line string, size fixed.Int26_6) ([]placedGlyph, float64) {
	runes := []rune(line)
	if len(runes) == 0 {
		return nil, 0
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	defer shaperPool.Put(hb)
	face := tsfont.NewFace(f)

	var out []placedGlyph
	pen := 0.0
	for _, r := range bidiRuns(line, len(runes)) {
		input := shaping.Input{
			Text:      runes,
			RunStart:  r.start,
			RunEnd:    r.end,
			Direction: r.dir,
			Face:      face,
			Size:      size,
			Script:    runScript(runes[r.start:r.end]),
			Language:  language.NewLanguage("en"),
		}
		for _, g := range hb.Shape(input).Glyphs {
			out = append(out, placedGlyph{
				gid: sfnt.GlyphIndex(g.GlyphID),
				x:   pen + fixedToFloat(g.XOffset),
				y:   fixedToFloat(g.YOffset),
			})
			pen += fixedToFloat(g.Advance)
		}
	}
	return out, pen
}

// textRun is a half-open rune range of one direction.
type textRun struct {
	start, end int
	dir        di.Direction
}

// bidiRuns splits a line into directional runs in visual order. Lines the
// bidi algorithm rejects are shaped as a single left-to-right run.
func bidiRuns(line string, n int) []textRun {
	fallback := []textRun{{start: 0, end: n, dir: di.DirectionLTR}}

	var p bidi.Paragraph
	if _, err := p.SetString(line, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return fallback
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return fallback
	}

	runs := make([]textRun, 0, ordering.NumRuns())
	for i := range ordering.NumRuns() {
		run := ordering.Run(i)
		start, end := run.Pos()
		end = min(end+1, n)
		if start < 0 || start >= end {
			continue
		}
		dir := di.DirectionLTR
		if run.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		runs = append(runs, textRun{start: start, end: end, dir: dir})
	}
	if len(runs) == 0 {
		return fallback
	}
	return runs
}

// runScript returns the script of the first letter in runes.
func runScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// appendOutline adds glyph outline segments to ras with the glyph origin at
// (ox, oy). sfnt segments already use a y-down axis.
func appendOutline(ras *vector.Rasterizer, segs sfnt.Segments, ox, oy float64) {
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(ox + fixedToFloat(p.X)), float32(oy + fixedToFloat(p.Y))
	}
	started := false
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				ras.ClosePath()
			}
			started = true
			ras.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			ras.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			ras.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(s.Args[0])
			cx, cy := pt(s.Args[1])
			dx, dy := pt(s.Args[2])
			ras.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if started {
		ras.ClosePath()
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
