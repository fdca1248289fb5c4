package galaxy

import (
	"gonum.org/v1/gonum/stat"
)

// ZoneStats summarises the planar distribution of one zone.
type ZoneStats struct {
	Zone    Zone    `json:"zone"`
	Count   int     `json:"count"`
	MeanX   float64 `json:"mean_x"`
	MeanY   float64 `json:"mean_y"`
	StdDevX float64 `json:"stddev_x"`
	StdDevY float64 `json:"stddev_y"`
}

// Stats is a summary of a generated cloud.
type Stats struct {
	Stars     int                `json:"stars"`
	Gas       int                `json:"gas"`
	Zones     []ZoneStats        `json:"zones"`
	PerArm    []int              `json:"per_arm"`
	GasPerArm []int              `json:"gas_per_arm"`
	Classes   map[ColorClass]int `json:"classes"`
}

// Summarize computes per-zone, per-arm and per-class counts and the
// mean/stddev of x,y positions in each zone.
func Summarize(c *Cloud) Stats {
	st := Stats{
		Stars:     len(c.Stars),
		Gas:       len(c.Gas),
		PerArm:    make([]int, c.Config.ArmCount),
		GasPerArm: make([]int, c.Config.ArmCount),
		Classes:   make(map[ColorClass]int),
	}

	for _, z := range []Zone{ZoneCore, ZoneOuterCore, ZoneArm} {
		r := c.ZoneRange(z)
		xs := make([]float64, 0, r.Len())
		ys := make([]float64, 0, r.Len())
		for _, s := range c.Stars[r.Start:r.End] {
			xs = append(xs, s.Position.X)
			ys = append(ys, s.Position.Y)
		}
		zs := ZoneStats{Zone: z, Count: r.Len()}
		switch {
		case len(xs) > 1:
			zs.MeanX, zs.StdDevX = stat.MeanStdDev(xs, nil)
			zs.MeanY, zs.StdDevY = stat.MeanStdDev(ys, nil)
		case len(xs) == 1:
			// sample stddev is undefined for one point
			zs.MeanX, zs.MeanY = xs[0], ys[0]
		}
		st.Zones = append(st.Zones, zs)
	}

	for _, s := range c.Stars {
		st.Classes[s.Class]++
		if s.Arm >= 0 && s.Arm < len(st.PerArm) {
			st.PerArm[s.Arm]++
		}
	}
	for _, g := range c.Gas {
		if g.Arm >= 0 && g.Arm < len(st.GasPerArm) {
			st.GasPerArm[g.Arm]++
		}
	}
	return st
}
