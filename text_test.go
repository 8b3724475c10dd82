package photokit

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/go-text/typesetting/di"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/math/fixed"
)

func TestTextOptionsDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   TextOptions
		want TextOptions
	}{
		{
			name: "zero value",
			in:   TextOptions{},
			want: TextOptions{Size: 48, DPI: 72, Color: color.NRGBA{A: 255}, Padding: 8},
		},
		{
			name: "explicit values kept",
			in:   TextOptions{Size: 12, DPI: 96, Color: red, Padding: 2},
			want: TextOptions{Size: 12, DPI: 96, Color: red, Padding: 2},
		},
		{
			name: "negative padding means none",
			in:   TextOptions{Padding: -1},
			want: TextOptions{Size: 48, DPI: 72, Color: color.NRGBA{A: 255}, Padding: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.in.withDefaults()); diff != "" {
				t.Errorf("withDefaults() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderTextEmpty(t *testing.T) {
	for _, s := range []string{"", "   ", "\n\t"} {
		if _, err := RenderText(s, TextOptions{}); !errors.Is(err, ErrEmptyText) {
			t.Errorf("RenderText(%q) err = %v, want ErrEmptyText", s, err)
		}
	}
}

func TestRenderText(t *testing.T) {
	p, err := RenderText("Hello", TextOptions{Size: 24})
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	if p.Width() <= 16 || p.Height() <= 16 {
		t.Fatalf("sticker size = %dx%d, want more than the padding", p.Width(), p.Height())
	}
	if got := p.Pixel(0, 0); got.A != 0 {
		t.Errorf("padding pixel = %v, want transparent background", got)
	}

	inked := 0
	for y := range p.Height() {
		for x := range p.Width() {
			if c := p.Pixel(x, y); c.A > 128 {
				inked++
				if c.R != 0 || c.G != 0 || c.B != 0 {
					t.Fatalf("glyph pixel (%d, %d) = %v, want black", x, y, c)
				}
			}
		}
	}
	if inked == 0 {
		t.Error("no glyph pixels drawn")
	}
}

func TestRenderTextMultiline(t *testing.T) {
	one, err := RenderText("ab", TextOptions{})
	if err != nil {
		t.Fatal(err)
	}
	two, err := RenderText("ab\nab", TextOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if two.Width() != one.Width() {
		t.Errorf("width %d != %d for repeated line", two.Width(), one.Width())
	}
	if two.Height() <= one.Height() {
		t.Errorf("two lines height %d <= one line %d", two.Height(), one.Height())
	}
}

func TestRenderTextBackground(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	p, err := RenderText("x", TextOptions{Background: white})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Pixel(0, 0); got != white {
		t.Errorf("corner = %v, want background", got)
	}
}

func TestRenderTextNormalizes(t *testing.T) {
	composed, err := RenderText("caf\u00e9", TextOptions{})
	if err != nil {
		t.Fatal(err)
	}
	decomposed, err := RenderText("cafe\u0301", TextOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if composed.Width() != decomposed.Width() || !bytes.Equal(composed.Data(), decomposed.Data()) {
		t.Error("composed and decomposed input rendered differently")
	}
}

func TestBidiRunsLeftToRight(t *testing.T) {
	runs := bidiRuns("Hello", 5)
	if len(runs) != 1 {
		t.Fatalf("bidiRuns = %+v, want one run", runs)
	}
	if r := runs[0]; r.start != 0 || r.end != 5 || r.dir != di.DirectionLTR {
		t.Errorf("run = %+v, want [0,5) left-to-right", r)
	}
}

func TestShapeLineAdvances(t *testing.T) {
	f, err := goRegular()
	if err != nil {
		t.Fatal(err)
	}
	glyphs, adv := shapeLine(f.shape, "ab", fixed.I(24))
	if len(glyphs) != 2 {
		t.Fatalf("shaped %d glyphs, want 2", len(glyphs))
	}
	if glyphs[0].x != 0 || glyphs[1].x <= 0 || adv <= glyphs[1].x {
		t.Errorf("glyph positions %+v with advance %v are not increasing", glyphs, adv)
	}
	if g, a := shapeLine(f.shape, "", fixed.I(24)); g != nil || a != 0 {
		t.Errorf("empty line shaped to %v, %v", g, a)
	}
}
