package galaxy

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/litescript/ls-galaxy/internal/logging"
)

// countingSource counts draws from an underlying source.
type countingSource struct {
	src   Source
	draws int
}

func (s *countingSource) Float64() float64 {
	s.draws++
	return s.src.Float64()
}

func smallConfig(stars int) Config {
	cfg := DefaultConfig()
	cfg.StarCount = stars
	return cfg
}

func mustGenerate(t *testing.T, cfg Config, seed uint64) *Cloud {
	t.Helper()
	cloud, err := Generate(cfg, NewSource(seed))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return cloud
}

func TestGenerate_Counts(t *testing.T) {
	tests := []struct {
		name      string
		stars     int
		arms      int
		wantCore  int
		wantOuter int
		wantArm   int
		wantTotal int
	}{
		{"reference", 50000, 2, 12500, 12500, 12500, 50000},
		{"divisible", 4000, 2, 1000, 1000, 1000, 4000},
		{"truncated", 7, 2, 1, 1, 1, 4},
		{"minimal", 4, 2, 1, 1, 1, 4},
		{"below four", 3, 2, 0, 0, 0, 0},
		{"three arms", 12, 3, 3, 3, 2, 12},
		{"three arms truncated", 100, 3, 25, 25, 16, 98},
		{"one arm", 40, 1, 10, 10, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig(tt.stars)
			cfg.ArmCount = tt.arms
			cloud := mustGenerate(t, cfg, 1)

			if got := cloud.ZoneRange(ZoneCore).Len(); got != tt.wantCore {
				t.Errorf("core count = %d, want %d", got, tt.wantCore)
			}
			if got := cloud.ZoneRange(ZoneOuterCore).Len(); got != tt.wantOuter {
				t.Errorf("outer core count = %d, want %d", got, tt.wantOuter)
			}
			for j := 0; j < tt.arms; j++ {
				if got := cloud.ArmRange(j).Len(); got != tt.wantArm {
					t.Errorf("arm %d count = %d, want %d", j, got, tt.wantArm)
				}
			}
			if len(cloud.Stars) != tt.wantTotal {
				t.Errorf("len(Stars) = %d, want %d", len(cloud.Stars), tt.wantTotal)
			}
			if len(cloud.Stars) != cfg.GeneratedStarCount() {
				t.Errorf("len(Stars) = %d, GeneratedStarCount() = %d", len(cloud.Stars), cfg.GeneratedStarCount())
			}
		})
	}
}

func TestGenerate_MinimalGalaxyZones(t *testing.T) {
	cfg := smallConfig(4)
	cfg.Gas = false
	cloud := mustGenerate(t, cfg, 5)

	want := []struct {
		zone Zone
		arm  int
	}{
		{ZoneCore, -1},
		{ZoneOuterCore, -1},
		{ZoneArm, 0},
		{ZoneArm, 1},
	}
	for i, w := range want {
		s := cloud.Stars[i]
		if s.Zone != w.zone || s.Arm != w.arm {
			t.Errorf("star %d = (%v, arm %d), want (%v, arm %d)", i, s.Zone, s.Arm, w.zone, w.arm)
		}
	}
}

func TestGenerate_ZonePartition(t *testing.T) {
	cfg := smallConfig(4003)
	cfg.ArmCount = 3
	cloud := mustGenerate(t, cfg, 11)

	for _, z := range []Zone{ZoneCore, ZoneOuterCore, ZoneArm} {
		r := cloud.ZoneRange(z)
		for i := r.Start; i < r.End; i++ {
			if cloud.Stars[i].Zone != z {
				t.Fatalf("star %d zone = %v, want %v", i, cloud.Stars[i].Zone, z)
			}
		}
	}
	for j := 0; j < cfg.ArmCount; j++ {
		r := cloud.ArmRange(j)
		for i := r.Start; i < r.End; i++ {
			if cloud.Stars[i].Arm != j {
				t.Fatalf("star %d arm = %d, want %d", i, cloud.Stars[i].Arm, j)
			}
		}
	}
	if got := cloud.ZoneRange(ZoneArm).Start; got != cfg.ArmsStartIndex() {
		t.Errorf("arm zone start = %d, want %d", got, cfg.ArmsStartIndex())
	}
	if r := cloud.ArmRange(cfg.ArmCount); r.Len() != 0 {
		t.Errorf("ArmRange(out of range) = %+v, want empty", r)
	}
}

func TestGenerate_ClassesOnlyInArms(t *testing.T) {
	cfg := smallConfig(6000)
	cloud := mustGenerate(t, cfg, 21)

	counts := map[ColorClass]int{}
	for i, s := range cloud.Stars {
		if s.Zone != ZoneArm {
			if s.Class != ClassNone {
				t.Fatalf("star %d in %v has class %v", i, s.Zone, s.Class)
			}
			continue
		}
		if s.Class == ClassNone {
			t.Fatalf("arm star %d has no class", i)
		}
		counts[s.Class]++
	}

	arms := cloud.ZoneRange(ZoneArm).Len()
	for _, c := range []ColorClass{ClassNormal, ClassRedGiant, ClassWhiteDwarf} {
		frac := float64(counts[c]) / float64(arms)
		if math.Abs(frac-1.0/3.0) > 0.04 {
			t.Errorf("%v fraction = %.3f, want about 1/3", c, frac)
		}
	}
}

func TestGenerate_NoColorClasses(t *testing.T) {
	cfg, _ := Preset(PresetClassic)
	cfg.StarCount = 2000
	cloud := mustGenerate(t, cfg, 2)

	for i, s := range cloud.Stars {
		want := ClassNone
		if s.Zone == ZoneArm {
			want = ClassNormal
		}
		if s.Class != want {
			t.Fatalf("star %d class = %v, want %v", i, s.Class, want)
		}
	}
	if len(cloud.Gas) != 0 {
		t.Errorf("classic preset produced %d gas clouds", len(cloud.Gas))
	}
}

func TestGenerate_ClassColors(t *testing.T) {
	cloud := mustGenerate(t, smallConfig(4000), 8)

	for i, s := range cloud.Stars {
		switch s.Class {
		case ClassWhiteDwarf:
			if s.Color.R != s.Color.G || s.Color.G != s.Color.B {
				t.Fatalf("white dwarf %d colour %+v is not grey", i, s.Color)
			}
			if s.Color.R < 0.7 || s.Color.R >= 1.0 {
				t.Fatalf("white dwarf %d brightness %v outside [0.7, 1.0)", i, s.Color.R)
			}
		case ClassRedGiant:
			// #ff9955 has R = 1 before brightness
			if s.Color.R < 0.8 || s.Color.R >= 1.2 {
				t.Fatalf("red giant %d brightness %v outside [0.8, 1.2)", i, s.Color.R)
			}
			if s.Color.R <= s.Color.G || s.Color.G <= s.Color.B {
				t.Fatalf("red giant %d colour %+v is not orange", i, s.Color)
			}
		}
	}
}

func TestGenerate_GradientEndpoints(t *testing.T) {
	cfg := smallConfig(400)
	cfg.CoreSpreadX, cfg.CoreSpreadY, cfg.Thickness = 0, 0, 0
	cloud := mustGenerate(t, cfg, 4)

	core := cloud.Stars[cloud.ZoneRange(ZoneCore).Start]
	if got := core.Color.Hex(); got != cfg.InsideColor {
		t.Errorf("core star colour = %s, want %s", got, cfg.InsideColor)
	}

	// Arm stars far past 1.5 * OuterCoreSpreadX saturate to the outside colour.
	for _, s := range cloud.Stars[cloud.ZoneRange(ZoneArm).Start:] {
		if s.Class == ClassNormal && r3.Norm(s.Position) > 2*1.5*cfg.OuterCoreSpreadX {
			if got := s.Color.Hex(); got != cfg.OutsideColor {
				t.Errorf("distant arm star colour = %s, want %s", got, cfg.OutsideColor)
			}
			return
		}
	}
	t.Fatal("no distant normal arm star found")
}

func TestGenerate_ZeroSpread(t *testing.T) {
	cfg := smallConfig(400)
	cfg.CoreSpreadX, cfg.CoreSpreadY = 0, 0
	cfg.OuterCoreSpreadX, cfg.OuterCoreSpreadY = 0, 0
	cfg.ArmSpreadX, cfg.ArmSpreadY = 0, 0
	cfg.Thickness = 0
	cloud := mustGenerate(t, cfg, 9)

	for _, z := range []Zone{ZoneCore, ZoneOuterCore} {
		r := cloud.ZoneRange(z)
		for i := r.Start; i < r.End; i++ {
			if p := cloud.Stars[i].Position; p != (r3.Vec{}) {
				t.Fatalf("%v star %d at %v, want origin", z, i, p)
			}
		}
	}

	// With zero spread every arm star lands on the warped arm mean.
	for j := 0; j < cfg.ArmCount; j++ {
		want := SpiralWarp(r3.Vec{X: cfg.ArmMeanX, Y: cfg.ArmMeanY}, ArmOffset(j, cfg.ArmCount), cfg.SpiralTightness)
		r := cloud.ArmRange(j)
		for i := r.Start; i < r.End; i++ {
			if p := cloud.Stars[i].Position; p != want {
				t.Fatalf("arm %d star %d at %v, want %v", j, i, p, want)
			}
		}
	}
}

func TestGenerate_ZoneStatistics(t *testing.T) {
	cfg := smallConfig(100000)
	cfg.Gas = false
	cloud := mustGenerate(t, cfg, 2024)

	tests := []struct {
		zone             Zone
		spreadX, spreadY float64
	}{
		{ZoneCore, cfg.CoreSpreadX, cfg.CoreSpreadY},
		{ZoneOuterCore, cfg.OuterCoreSpreadX, cfg.OuterCoreSpreadY},
	}

	for _, tt := range tests {
		t.Run(tt.zone.String(), func(t *testing.T) {
			r := cloud.ZoneRange(tt.zone)
			xs := make([]float64, 0, r.Len())
			ys := make([]float64, 0, r.Len())
			zs := make([]float64, 0, r.Len())
			for _, s := range cloud.Stars[r.Start:r.End] {
				xs = append(xs, s.Position.X)
				ys = append(ys, s.Position.Y)
				zs = append(zs, s.Position.Z)
			}

			check := func(axis string, vals []float64, spread float64) {
				mean, sd := stat.MeanStdDev(vals, nil)
				// the configured mean is 0, so the 5% tolerance is taken on the spread
				if math.Abs(mean) > 0.05*spread {
					t.Errorf("%s mean = %v, want 0 ±%v", axis, mean, 0.05*spread)
				}
				if math.Abs(sd-spread) > 0.10*spread {
					t.Errorf("%s stddev = %v, want %v ±10%%", axis, sd, spread)
				}
			}
			check("x", xs, tt.spreadX)
			check("y", ys, tt.spreadY)
			check("z", zs, cfg.Thickness)
		})
	}
}

func TestGenerate_ArmRadiusFollowsMean(t *testing.T) {
	// The warp preserves planar radius, so the median arm radius stays near
	// the radius of the arm mean.
	cfg := smallConfig(20000)
	cfg.ArmSpreadX, cfg.ArmSpreadY = 10, 5
	cloud := mustGenerate(t, cfg, 77)

	r := cloud.ZoneRange(ZoneArm)
	radii := make([]float64, 0, r.Len())
	for _, s := range cloud.Stars[r.Start:r.End] {
		radii = append(radii, math.Hypot(s.Position.X, s.Position.Y))
	}
	mean := stat.Mean(radii, nil)
	want := math.Hypot(cfg.ArmMeanX, cfg.ArmMeanY)
	if math.Abs(mean-want) > 0.05*want {
		t.Errorf("mean arm radius = %v, want %v ±5%%", mean, want)
	}
}

func TestGenerate_PerStarAttributes(t *testing.T) {
	cfg := smallConfig(2000)
	cfg.BaseSize = 2
	cloud := mustGenerate(t, cfg, 13)

	for i, s := range cloud.Stars {
		if s.Size < 0.5*cfg.BaseSize || s.Size >= 1.5*cfg.BaseSize {
			t.Fatalf("star %d size %v outside [%v, %v)", i, s.Size, 0.5*cfg.BaseSize, 1.5*cfg.BaseSize)
		}
		if n := r3.Norm(s.RandomOffset); n < 0.75-1e-9 || n > 1+1e-9 {
			t.Fatalf("star %d random offset length %v outside [0.75, 1]", i, n)
		}
		if s.Intensity < 0 || s.Intensity >= 1 {
			t.Fatalf("star %d intensity %v outside [0, 1)", i, s.Intensity)
		}
		if s.Phase < 0 || s.Phase >= 2*math.Pi {
			t.Fatalf("star %d phase %v outside [0, 2π)", i, s.Phase)
		}
	}
}

func TestGenerate_Gas(t *testing.T) {
	tests := []struct {
		name      string
		gas       bool
		count     int
		reduction float64
		want      int
	}{
		{"reference", true, 500, 0.3, 150},
		{"floor", true, 10, 0.25, 2},
		{"full", true, 40, 1, 40},
		{"disabled", false, 500, 0.3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig(400)
			cfg.Gas = tt.gas
			cfg.GasCount = tt.count
			cfg.GasReduction = tt.reduction
			cloud := mustGenerate(t, cfg, 3)

			if len(cloud.Gas) != tt.want {
				t.Fatalf("len(Gas) = %d, want %d", len(cloud.Gas), tt.want)
			}
			for i, g := range cloud.Gas {
				if g.Arm < 0 || g.Arm >= cfg.ArmCount {
					t.Errorf("gas %d arm = %d, want [0, %d)", i, g.Arm, cfg.ArmCount)
				}
				if g.Density < 0.8 || g.Density >= 1.0 {
					t.Errorf("gas %d density = %v, want [0.8, 1.0)", i, g.Density)
				}
			}
		})
	}
}

func TestGenerate_PerGasAttributes(t *testing.T) {
	cfg := smallConfig(400)
	cfg.GasCount = 1000
	cfg.GasReduction = 1
	cfg.GasColor = "#8b7fa8"
	cloud := mustGenerate(t, cfg, 17)

	base, err := colorful.Hex(cfg.GasColor)
	if err != nil {
		t.Fatalf("colorful.Hex(%q) error: %v", cfg.GasColor, err)
	}
	for i, g := range cloud.Gas {
		// Colour is the gas colour scaled by one brightness in [0.8, 1.0).
		brightness := g.Color.R / base.R
		if brightness < 0.8-1e-9 || brightness >= 1.0 {
			t.Fatalf("gas %d brightness %v outside [0.8, 1.0)", i, brightness)
		}
		if math.Abs(g.Color.G-base.G*brightness) > 1e-9 || math.Abs(g.Color.B-base.B*brightness) > 1e-9 {
			t.Fatalf("gas %d colour %+v is not %v scaled by %v", i, g.Color, cfg.GasColor, brightness)
		}
		if n := r3.Norm(g.RandomOffset); n < 0.75-1e-9 || n > 1+1e-9 {
			t.Fatalf("gas %d random offset length %v outside [0.75, 1]", i, n)
		}
		if g.Intensity < 0 || g.Intensity >= 1 {
			t.Fatalf("gas %d intensity %v outside [0, 1)", i, g.Intensity)
		}
		if g.Phase < 0 || g.Phase >= 2*math.Pi {
			t.Fatalf("gas %d phase %v outside [0, 2π)", i, g.Phase)
		}
	}
}

func TestGenerate_GasUsesEveryArm(t *testing.T) {
	cfg := smallConfig(400)
	cfg.ArmCount = 4
	cfg.GasCount = 2000
	cfg.GasReduction = 1
	cloud := mustGenerate(t, cfg, 31)

	seen := make([]int, cfg.ArmCount)
	for _, g := range cloud.Gas {
		seen[g.Arm]++
	}
	for j, n := range seen {
		if n == 0 {
			t.Errorf("arm %d received no gas", j)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := smallConfig(3000)

	a := mustGenerate(t, cfg, 12345)
	b := mustGenerate(t, cfg, 12345)
	if !reflect.DeepEqual(a.Buffers(), b.Buffers()) {
		t.Error("star buffers differ for the same seed")
	}
	if !reflect.DeepEqual(a.GasBuffers(), b.GasBuffers()) {
		t.Error("gas buffers differ for the same seed")
	}

	c := mustGenerate(t, cfg, 54321)
	if reflect.DeepEqual(a.Buffers().Positions, c.Buffers().Positions) {
		t.Error("star positions identical for different seeds")
	}
}

func TestGenerate_DrawCount(t *testing.T) {
	// Without colour classes each star draws a fixed 12 uniforms:
	// position (6), offset (3), size, intensity, phase.
	cfg := smallConfig(8)
	cfg.ColorClasses = false
	cfg.Gas = false
	src := &countingSource{src: NewSource(1)}
	if _, err := Generate(cfg, src); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if want := 8 * 12; src.draws != want {
		t.Errorf("draws = %d, want %d", src.draws, want)
	}

	// Each gas cloud draws 14: arm, position (6), offset (3), brightness,
	// density, intensity, phase.
	cfg.Gas = true
	cfg.GasCount = 10
	cfg.GasReduction = 1
	src = &countingSource{src: NewSource(1)}
	if _, err := Generate(cfg, src); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if want := 8*12 + 10*14; src.draws != want {
		t.Errorf("draws with gas = %d, want %d", src.draws, want)
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero stars", func(c *Config) { c.StarCount = 0 }, "star_count"},
		{"negative stars", func(c *Config) { c.StarCount = -10 }, "star_count"},
		{"zero arms", func(c *Config) { c.ArmCount = 0 }, "arm_count"},
		{"negative spread", func(c *Config) { c.ArmSpreadX = -1 }, "arm_spread_x"},
		{"nan thickness", func(c *Config) { c.Thickness = math.NaN() }, "thickness"},
		{"infinite mean", func(c *Config) { c.ArmMeanY = math.Inf(1) }, "arm_mean_y"},
		{"zero base size", func(c *Config) { c.BaseSize = 0 }, "base_size"},
		{"gas reduction zero", func(c *Config) { c.GasReduction = 0 }, "gas_reduction"},
		{"gas reduction above one", func(c *Config) { c.GasReduction = 1.5 }, "gas_reduction"},
		{"gas count zero", func(c *Config) { c.GasCount = 0 }, "gas_count"},
		{"bad colour", func(c *Config) { c.InsideColor = "orange" }, "inside_color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			src := &countingSource{src: NewSource(1)}

			cloud, err := Generate(cfg, src)
			if err == nil {
				t.Fatal("Generate() error = nil, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("errors.Is(err, ErrInvalidConfig) = false for %v", err)
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("ConfigError field = %v, want %s", cerr, tt.field)
			}
			if cloud != nil {
				t.Error("Generate() returned a cloud with an error")
			}
			if src.draws != 0 {
				t.Errorf("rejected config consumed %d draws", src.draws)
			}
		})
	}
}

func TestGenerator_Seed(t *testing.T) {
	cfg := smallConfig(400)

	g := NewGenerator(WithSeed(42))
	a, err := g.Generate(cfg)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if a.Seed != 42 {
		t.Errorf("Seed = %d, want 42", a.Seed)
	}
	b, _ := g.Generate(cfg)
	if !reflect.DeepEqual(a.Buffers(), b.Buffers()) {
		t.Error("seeded generator is not reproducible")
	}

	// An unseeded run records its seed so it can be replayed.
	c, err := NewGenerator().Generate(cfg)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	replay := mustGenerate(t, cfg, c.Seed)
	if !reflect.DeepEqual(c.Buffers(), replay.Buffers()) {
		t.Error("replaying the recorded seed gave different stars")
	}
}

func TestGenerator_ZoneDebugLog(t *testing.T) {
	tests := []struct {
		level     logging.Level
		wantZones bool
	}{
		{logging.LevelDebug, true},
		{logging.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := logging.New(tt.level)
			l.SetOutput(&buf)

			if _, err := NewGenerator(WithSeed(3), WithLogger(l)).Generate(smallConfig(400)); err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			out := buf.String()
			for _, zone := range []string{"core", "outer_core", "arm"} {
				if got := strings.Contains(out, "  "+zone+" "); got != tt.wantZones {
					t.Errorf("zone %s logged = %v, want %v (output %q)", zone, got, tt.wantZones, out)
				}
			}
		})
	}
}

func TestGenerator_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArmCount = -1
	cloud, err := NewGenerator(WithSeed(1)).Generate(cfg)
	if !errors.Is(err, ErrInvalidConfig) || cloud != nil {
		t.Errorf("Generate() = %v, %v; want nil, ErrInvalidConfig", cloud, err)
	}
}

func TestBuffers_Layout(t *testing.T) {
	cloud := mustGenerate(t, smallConfig(400), 6)
	b := cloud.Buffers()
	n := len(cloud.Stars)

	lens := []struct {
		name string
		got  int
		want int
	}{
		{"positions", len(b.Positions), 3 * n},
		{"colors", len(b.Colors), 3 * n},
		{"sizes", len(b.Sizes), n},
		{"randoms", len(b.Randoms), 3 * n},
		{"intensities", len(b.Intensities), n},
		{"angles", len(b.Angles), n},
		{"zones", len(b.Zones), n},
		{"classes", len(b.Classes), n},
	}
	for _, l := range lens {
		if l.got != l.want {
			t.Errorf("len(%s) = %d, want %d", l.name, l.got, l.want)
		}
	}
	if b.Len() != n {
		t.Errorf("Len() = %d, want %d", b.Len(), n)
	}

	last := cloud.Stars[n-1]
	if got := b.Positions[3*n-1]; got != float32(last.Position.Z) {
		t.Errorf("last z = %v, want %v", got, float32(last.Position.Z))
	}
	if got := Zone(b.Zones[n-1]); got != last.Zone {
		t.Errorf("last zone = %v, want %v", got, last.Zone)
	}

	g := cloud.GasBuffers()
	if g.Len() != len(cloud.Gas) || len(g.Positions) != 3*len(cloud.Gas) {
		t.Errorf("gas buffers len = %d/%d, want %d", g.Len(), len(g.Positions), len(cloud.Gas))
	}
}

func TestSummarize(t *testing.T) {
	cfg := smallConfig(4000)
	cloud := mustGenerate(t, cfg, 17)
	st := Summarize(cloud)

	if st.Stars != 4000 || st.Gas != 150 {
		t.Errorf("Stars, Gas = %d, %d; want 4000, 150", st.Stars, st.Gas)
	}
	if len(st.Zones) != 3 {
		t.Fatalf("len(Zones) = %d, want 3", len(st.Zones))
	}
	for _, zs := range st.Zones {
		if zs.Count != 1000 {
			t.Errorf("%v count = %d, want 1000", zs.Zone, zs.Count)
		}
	}
	for j, n := range st.PerArm {
		if n != 1000 {
			t.Errorf("PerArm[%d] = %d, want 1000", j, n)
		}
	}
	gas := 0
	for _, n := range st.GasPerArm {
		gas += n
	}
	if gas != 150 {
		t.Errorf("sum(GasPerArm) = %d, want 150", gas)
	}
	if st.Classes[ClassNone] != 2000 {
		t.Errorf("Classes[none] = %d, want 2000", st.Classes[ClassNone])
	}
	arm := st.Classes[ClassNormal] + st.Classes[ClassRedGiant] + st.Classes[ClassWhiteDwarf]
	if arm != 2000 {
		t.Errorf("classified arm stars = %d, want 2000", arm)
	}
}

func TestSummarize_SingleStarZones(t *testing.T) {
	cloud := mustGenerate(t, smallConfig(4), 1)
	st := Summarize(cloud)
	for _, zs := range st.Zones {
		if math.IsNaN(zs.StdDevX) || math.IsNaN(zs.MeanX) {
			t.Errorf("%v stats contain NaN: %+v", zs.Zone, zs)
		}
	}
}

func TestZone_String(t *testing.T) {
	for _, z := range []Zone{ZoneCore, ZoneOuterCore, ZoneArm} {
		got, ok := ParseZone(z.String())
		if !ok || got != z {
			t.Errorf("ParseZone(%q) = %v, %v; want %v", z.String(), got, ok, z)
		}
	}
	if _, ok := ParseZone("halo"); ok {
		t.Error("ParseZone(halo) succeeded")
	}
}
