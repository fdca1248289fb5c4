package render

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestProjectTopDown(t *testing.T) {
	cfg := DefaultProjectionConfig(400)

	tests := []struct {
		name  string
		p     r3.Vec
		wantX float64
		wantY float64
		wantR float64
	}{
		{"origin", r3.Vec{}, 0, 0, 0},
		{"edge +X", r3.Vec{X: 400}, 1, 0, 400},
		{"half +Y", r3.Vec{Y: 200, Z: 7}, 0, 0.5, 200},
		{"beyond -X", r3.Vec{X: -800}, -2, 0, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectTopDown(tt.p, cfg)
			if math.Abs(got.X-tt.wantX) > 1e-10 || math.Abs(got.Y-tt.wantY) > 1e-10 {
				t.Errorf("ProjectTopDown(%v) = (%v, %v), want (%v, %v)", tt.p, got.X, got.Y, tt.wantX, tt.wantY)
			}
			if math.Abs(got.R-tt.wantR) > 1e-10 {
				t.Errorf("R = %v, want %v", got.R, tt.wantR)
			}
			if got.Z != tt.p.Z {
				t.Errorf("Z = %v, want %v", got.Z, tt.p.Z)
			}
		})
	}
}

func TestScaleModes(t *testing.T) {
	lin := DefaultProjectionConfig(400)
	log := lin
	log.Mode = ScaleLog

	// Both modes agree at the centre and the edge.
	for _, r := range []float64{0, 400} {
		a := ProjectTopDown(r3.Vec{X: r}, lin).X
		b := ProjectTopDown(r3.Vec{X: r}, log).X
		if math.Abs(a-b) > 1e-10 {
			t.Errorf("r=%v: linear %v, log %v; want equal", r, a, b)
		}
	}

	// Log mode gives the core more room.
	a := ProjectTopDown(r3.Vec{X: 40}, lin).X
	b := ProjectTopDown(r3.Vec{X: 40}, log).X
	if b <= a {
		t.Errorf("log projection of core %v <= linear %v", b, a)
	}
}

func TestProjectTopDown_ZeroExtent(t *testing.T) {
	got := ProjectTopDown(r3.Vec{X: 10, Y: 10}, ProjectionConfig{Scale: 1})
	if got.X != 0 || got.Y != 0 {
		t.Errorf("zero extent projection = (%v, %v), want origin", got.X, got.Y)
	}
}

func TestParseScaleMode(t *testing.T) {
	for _, m := range []ScaleMode{ScaleLinear, ScaleLog} {
		got, ok := ParseScaleMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseScaleMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseScaleMode("cubic"); ok {
		t.Error("ParseScaleMode(cubic) succeeded")
	}
}
