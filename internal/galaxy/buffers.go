package galaxy

// StarBuffers are the flat per-attribute arrays a GPU consumer uploads.
// Vector attributes are packed xyz / rgb, three floats per star.
type StarBuffers struct {
	Positions   []float32 `json:"positions"`
	Colors      []float32 `json:"colors"`
	Sizes       []float32 `json:"sizes"`
	Randoms     []float32 `json:"randoms"`
	Intensities []float32 `json:"intensities"`
	Angles      []float32 `json:"angles"`
	Zones       []uint8   `json:"zones"`
	Classes     []uint8   `json:"classes"`
}

// GasBuffers are the flat per-instance arrays for gas clouds.
type GasBuffers struct {
	Positions   []float32 `json:"positions"`
	Colors      []float32 `json:"colors"`
	Densities   []float32 `json:"densities"`
	Randoms     []float32 `json:"randoms"`
	Intensities []float32 `json:"intensities"`
	Angles      []float32 `json:"angles"`
}

// Len returns the number of stars in the buffers.
func (b StarBuffers) Len() int { return len(b.Sizes) }

// Len returns the number of gas instances in the buffers.
func (b GasBuffers) Len() int { return len(b.Densities) }

// Buffers flattens the stars into parallel arrays.
func (c *Cloud) Buffers() StarBuffers {
	n := len(c.Stars)
	b := StarBuffers{
		Positions:   make([]float32, 0, 3*n),
		Colors:      make([]float32, 0, 3*n),
		Sizes:       make([]float32, 0, n),
		Randoms:     make([]float32, 0, 3*n),
		Intensities: make([]float32, 0, n),
		Angles:      make([]float32, 0, n),
		Zones:       make([]uint8, 0, n),
		Classes:     make([]uint8, 0, n),
	}
	for _, s := range c.Stars {
		b.Positions = append(b.Positions, float32(s.Position.X), float32(s.Position.Y), float32(s.Position.Z))
		b.Colors = append(b.Colors, float32(s.Color.R), float32(s.Color.G), float32(s.Color.B))
		b.Sizes = append(b.Sizes, float32(s.Size))
		b.Randoms = append(b.Randoms, float32(s.RandomOffset.X), float32(s.RandomOffset.Y), float32(s.RandomOffset.Z))
		b.Intensities = append(b.Intensities, float32(s.Intensity))
		b.Angles = append(b.Angles, float32(s.Phase))
		b.Zones = append(b.Zones, uint8(s.Zone))
		b.Classes = append(b.Classes, uint8(s.Class))
	}
	return b
}

// GasBuffers flattens the gas clouds into parallel arrays.
func (c *Cloud) GasBuffers() GasBuffers {
	n := len(c.Gas)
	b := GasBuffers{
		Positions:   make([]float32, 0, 3*n),
		Colors:      make([]float32, 0, 3*n),
		Densities:   make([]float32, 0, n),
		Randoms:     make([]float32, 0, 3*n),
		Intensities: make([]float32, 0, n),
		Angles:      make([]float32, 0, n),
	}
	for _, g := range c.Gas {
		b.Positions = append(b.Positions, float32(g.Position.X), float32(g.Position.Y), float32(g.Position.Z))
		b.Colors = append(b.Colors, float32(g.Color.R), float32(g.Color.G), float32(g.Color.B))
		b.Densities = append(b.Densities, float32(g.Density))
		b.Randoms = append(b.Randoms, float32(g.RandomOffset.X), float32(g.RandomOffset.Y), float32(g.RandomOffset.Z))
		b.Intensities = append(b.Intensities, float32(g.Intensity))
		b.Angles = append(b.Angles, float32(g.Phase))
	}
	return b
}
