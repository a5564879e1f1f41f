package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveContainmentHistogram renders the distribution of containment
// values from a `dist` run to a PNG, for a quick look at how a
// database's hits cluster.
func SaveContainmentHistogram(containments []float64, path string) error {
	if len(containments) == 0 {
		return fmt.Errorf("no containment values to plot")
	}

	values := make(plotter.Values, len(containments))
	copy(values, containments)

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("creating plot: %w", err)
	}
	p.Title.Text = "containment distribution"
	p.X.Label.Text = "containment"
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(values, 20)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	p.Add(hist)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
