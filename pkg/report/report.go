// Package report turns a headless trajectory into charts and summaries.
package report

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/opd-ai/go-trajectory/pkg/sim"
)

// Default chart size.
const (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 4 * vg.Inch
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// Points returns the flight path, launch point first.
func Points(traj *sim.Trajectory) plotter.XYs {
	pts := make(plotter.XYs, 0, len(traj.Samples)+1)
	pts = append(pts, plotter.XY{})
	for _, s := range traj.Samples {
		pts = append(pts, plotter.XY{X: s.Position.X, Y: s.Position.Y})
	}
	return pts
}

// NewPlot builds a height-over-distance chart with the peak marked.
func NewPlot(traj *sim.Trajectory) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trajectory: %.0f° at %.1f m/s", traj.Config.LaunchAngleDeg, traj.Config.LaunchSpeed)
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Height (m)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(Points(traj))
	if err != nil {
		return nil, fmt.Errorf("failed to build trajectory line: %w", err)
	}
	line.Color = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	line.Width = vg.Points(2)

	peak, err := plotter.NewScatter(plotter.XYs{{X: traj.Peak.X, Y: traj.Peak.Y}})
	if err != nil {
		return nil, fmt.Errorf("failed to build peak marker: %w", err)
	}
	peak.Color = color.RGBA{B: 255, A: 255}

	p.Add(line, peak)
	p.Legend.Add("path", line)
	p.Legend.Add("peak", peak)
	return p, nil
}

// SavePlot writes the chart to path. The image format follows the file
// extension (png, svg, pdf...).
func SavePlot(traj *sim.Trajectory, path string) error {
	p, err := NewPlot(traj)
	if err != nil {
		return err
	}
	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

// WritePlot encodes the chart to w in the given format.
func WritePlot(traj *sim.Trajectory, w io.Writer, format string) error {
	p, err := NewPlot(traj)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotWidth, PlotHeight, format)
	if err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// ASCIIChart renders height over time for a terminal.
func ASCIIChart(traj *sim.Trajectory, width, height int) string {
	if len(traj.Samples) == 0 {
		return ""
	}
	heights := make([]float64, len(traj.Samples))
	for i, s := range traj.Samples {
		heights[i] = s.Position.Y
	}
	return asciigraph.Plot(heights,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption("Height (m) over time"),
	)
}

// Summary formats the headline figures of a run.
func Summary(traj *sim.Trajectory) string {
	rows := []struct {
		label string
		value string
	}{
		{"Outcome", string(traj.Reason)},
		{"Range", fmt.Sprintf("%.2f m", traj.Range)},
		{"Peak height", fmt.Sprintf("%.2f m at t=%.2f s", traj.Peak.Y, traj.PeakTime)},
		{"Flight time", fmt.Sprintf("%.2f s", traj.FlightTime)},
		{"Steps", fmt.Sprintf("%d", len(traj.Samples))},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Projectile summary"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
