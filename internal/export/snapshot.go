// Package export writes generated clouds as JSON snapshots, binary buffer
// files, text summaries and ASCII maps.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// Snapshot is the JSON-serializable representation of a generated cloud.
type Snapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Seed        uint64             `json:"seed"`
	Config      galaxy.Config      `json:"config"`
	Counts      Counts             `json:"counts"`
	Zones       []RangeExport      `json:"zones"`
	Arms        []RangeExport      `json:"arms"`
	Stars       galaxy.StarBuffers `json:"stars"`
	Gas         galaxy.GasBuffers  `json:"gas"`
}

// Counts are the headline numbers of a snapshot.
type Counts struct {
	Stars int `json:"stars"`
	Gas   int `json:"gas"`
}

// RangeExport is a named half-open index range into the star buffers.
type RangeExport struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ExportSnapshot converts a cloud to an exportable snapshot.
func ExportSnapshot(cloud *galaxy.Cloud, generatedAt time.Time) *Snapshot {
	if cloud == nil {
		return &Snapshot{GeneratedAt: generatedAt}
	}

	s := &Snapshot{
		GeneratedAt: generatedAt,
		Seed:        cloud.Seed,
		Config:      cloud.Config,
		Counts:      Counts{Stars: len(cloud.Stars), Gas: len(cloud.Gas)},
		Stars:       cloud.Buffers(),
		Gas:         cloud.GasBuffers(),
	}

	for _, z := range []galaxy.Zone{galaxy.ZoneCore, galaxy.ZoneOuterCore, galaxy.ZoneArm} {
		r := cloud.ZoneRange(z)
		s.Zones = append(s.Zones, RangeExport{Name: z.String(), Start: r.Start, End: r.End})
	}
	for j := 0; j < cloud.Config.ArmCount; j++ {
		r := cloud.ArmRange(j)
		s.Arms = append(s.Arms, RangeExport{Name: fmt.Sprintf("arm_%d", j), Start: r.Start, End: r.End})
	}
	return s
}

// WriteJSON writes the snapshot as indented JSON.
func (s *Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ReadSnapshot decodes a snapshot written by WriteJSON.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
