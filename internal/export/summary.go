package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// SummaryRow represents one zone row in the summary table.
type SummaryRow struct {
	Zone    string
	Stars   int
	MeanX   float64
	MeanY   float64
	StdDevX float64
	StdDevY float64
}

// GenerateSummaryRows creates one row per zone.
func GenerateSummaryRows(st galaxy.Stats) []SummaryRow {
	rows := make([]SummaryRow, 0, len(st.Zones))
	for _, z := range st.Zones {
		rows = append(rows, SummaryRow{
			Zone:    z.Zone.String(),
			Stars:   z.Count,
			MeanX:   z.MeanX,
			MeanY:   z.MeanY,
			StdDevX: z.StdDevX,
			StdDevY: z.StdDevY,
		})
	}
	return rows
}

// WriteSummaryTable writes a text summary of the cloud.
func WriteSummaryTable(w io.Writer, cloud *galaxy.Cloud, timestamp time.Time) {
	fmt.Fprintf(w, "Galaxy @ %s\n", timestamp.Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 64))

	if cloud == nil || len(cloud.Stars) == 0 {
		fmt.Fprintln(w, "No stars generated")
		return
	}

	st := galaxy.Summarize(cloud)
	fmt.Fprintf(w, "Seed %d  Arms %d  Tightness %.2f  Radius %.0f\n",
		cloud.Seed, cloud.Config.ArmCount, cloud.Config.SpiralTightness, cloud.Config.GalaxyRadius())
	fmt.Fprintln(w, strings.Repeat("─", 64))

	// Zones
	fmt.Fprintf(w, "%-12s %8s %9s %9s %9s %9s\n", "Zone", "Stars", "Mean X", "Mean Y", "σ X", "σ Y")
	for _, r := range GenerateSummaryRows(st) {
		fmt.Fprintf(w, "%-12s %8d %9.1f %9.1f %9.1f %9.1f\n",
			truncateStr(r.Zone, 12), r.Stars, r.MeanX, r.MeanY, r.StdDevX, r.StdDevY)
	}
	fmt.Fprintln(w, strings.Repeat("─", 64))

	// Arms
	fmt.Fprintf(w, "%-12s %8s %9s\n", "Arm", "Stars", "Gas")
	for j := range st.PerArm {
		fmt.Fprintf(w, "%-12s %8d %9d\n", fmt.Sprintf("arm %d", j), st.PerArm[j], st.GasPerArm[j])
	}
	fmt.Fprintln(w, strings.Repeat("─", 64))

	// Classes
	classes := []galaxy.ColorClass{galaxy.ClassNone, galaxy.ClassNormal, galaxy.ClassRedGiant, galaxy.ClassWhiteDwarf}
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		if n := st.Classes[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", c, n))
		}
	}
	fmt.Fprintf(w, "Classes: %s\n", strings.Join(parts, ", "))

	fmt.Fprintf(w, "\nTotal: %d stars, %d gas clouds\n", st.Stars, st.Gas)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
