package photokit

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/math/f64"
)

func TestMatrixConstructors(t *testing.T) {
	tests := []struct {
		name         string
		m            Matrix
		x, y         float64
		wantX, wantY float64
	}{
		{"identity", Identity(), 3, 4, 3, 4},
		{"translate", Translate(10, -5), 1, 1, 11, -4},
		{"scale", Scale(2, 3), 1, 1, 2, 3},
		{"rotate quarter", Rotate(math.Pi / 2), 1, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.m.TransformPoint(tt.x, tt.y)
			if !near(x, tt.wantX) || !near(y, tt.wantY) {
				t.Errorf("TransformPoint = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// Scale applied first, then translate.
	m := Translate(10, 0).Multiply(Scale(2, 2))
	x, y := m.TransformPoint(1, 1)
	if !near(x, 12) || !near(y, 2) {
		t.Errorf("TransformPoint = (%v, %v), want (12, 2)", x, y)
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(5, 7).Multiply(Rotate(0.3)).Multiply(Scale(2, 0.5))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert() reported singular matrix")
	}
	got := m.Multiply(inv)
	if diff := cmp.Diff(Identity(), got, approx); diff != "" {
		t.Errorf("m * inv(m) mismatch (-want +got):\n%s", diff)
	}

	if _, ok := Scale(0, 1).Invert(); ok {
		t.Error("Invert() of a singular matrix reported ok")
	}
}

func TestMatrixIsIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if Translate(1, 0).IsIdentity() {
		t.Error("Translate(1, 0).IsIdentity() = true")
	}
}

func TestMatrixAff3(t *testing.T) {
	m := Matrix{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	want := f64.Aff3{1, 2, 3, 4, 5, 6}
	if got := m.Aff3(); got != want {
		t.Errorf("Aff3() = %v, want %v", got, want)
	}
}
