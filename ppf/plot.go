package ppf

import (
	"fmt"
	"html/template"
	"image/color"
	"io"

	chartjs "github.com/brentp/go-chartjs"
	"github.com/brentp/go-chartjs/types"
	"github.com/urnwait/urnwait/approx"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type vs struct {
	xs []float64
	ys []float64
}

func (v *vs) Xs() []float64 {
	return v.xs
}

func (v *vs) Ys() []float64 {
	return v.ys
}

func (v *vs) Rs() []float64 {
	return nil
}

func (v *vs) Len() int {
	return len(v.xs)
}

// make it meet gonum/plot plotter.XYer

func (v *vs) XY(i int) (x, y float64) {
	return v.xs[i], v.ys[i]
}

// cdf on x and t on y as in the tables.
func exactValues(c Curve) *vs {
	v := &vs{xs: make([]float64, c.Table.Len()), ys: make([]float64, c.Table.Len())}
	for i, t := range c.Table.T {
		v.xs[i] = c.Table.F[i]
		v.ys[i] = float64(t)
	}
	return v
}

// Options control what is drawn.
type Options struct {
	A, M int
	// Approx adds the approximate quantile curve for each pg.
	Approx bool
	Mode   approx.Mode
	// Thresholds get a vertical guide and the exact quantile as a label.
	Thresholds []float64
}

func approxValues(c Curve, o Options) (*vs, error) {
	ps := approx.Linspace(0.05, 0.95, 19)
	ns, err := approx.QuantileCurve(ps, o.A, o.M, c.Pg, o.Mode)
	if err != nil {
		return nil, err
	}
	return &vs{xs: ps, ys: ns}, nil
}

// Plot draws n against P(X <= n) for every curve and saves it to path. The format is
// taken from the extension (png, pdf, svg, ...).
func Plot(path string, curves []Curve, o Options) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("M: %d, A: %d", o.M, o.A)
	p.X.Label.Text = "P(X <= n)"
	p.Y.Label.Text = "n"
	p.X.Min, p.X.Max = -0.05, 1.05
	p.Legend.Top = true
	p.Legend.Left = true

	ymax := float64(o.A + 1)
	for i, c := range curves {
		if c.Table.Len() == 0 {
			continue
		}
		col := plotutil.Color(i)
		l, err := plotter.NewLine(exactValues(c))
		if err != nil {
			return err
		}
		l.Color = col
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("pg = %g", c.Pg), l)
		if last := float64(c.Table.T[c.Table.Len()-1]); last > ymax {
			ymax = last
		}

		if o.Approx {
			av, err := approxValues(c, o)
			if err != nil {
				return err
			}
			al, as, err := plotter.NewLinePoints(av)
			if err != nil {
				return err
			}
			al.Color = col
			al.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
			as.Color = col
			as.Shape = draw.CrossGlyph{}
			p.Add(al, as)
			p.Legend.Add(fmt.Sprintf("pg = %g, approximation", c.Pg), al, as)
		}

		labels := plotter.XYLabels{}
		for _, th := range o.Thresholds {
			q, err := c.Table.Quantile(th)
			if err != nil {
				continue
			}
			labels.XYs = append(labels.XYs, plotter.XY{X: th, Y: float64(q)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%d", q))
		}
		if len(labels.Labels) > 0 {
			lb, err := plotter.NewLabels(labels)
			if err != nil {
				return err
			}
			for j := range lb.TextStyle {
				lb.TextStyle[j].Color = col
			}
			p.Add(lb)
		}
	}

	for _, th := range o.Thresholds {
		g, err := plotter.NewLine(plotter.XYs{{X: th, Y: float64(o.A + 1)}, {X: th, Y: ymax}})
		if err != nil {
			return err
		}
		g.Color = color.Gray{Y: 128}
		g.Dashes = plotutil.Dashes(1)
		p.Add(g)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func rgba(c color.Color) *types.RGBA {
	r := color.RGBAModel.Convert(c).(color.RGBA)
	return &types.RGBA{R: r.R, G: r.G, B: r.B, A: 240}
}

// HTML writes an interactive version of Plot to w.
func HTML(w io.Writer, curves []Curve, o Options) error {
	chart := chartjs.Chart{Label: fmt.Sprintf("M: %d, A: %d", o.M, o.A)}
	xa, err := chart.AddXAxis(chartjs.Axis{Type: chartjs.Linear, Position: chartjs.Bottom,
		Tick:       &chartjs.Tick{Min: 0, Max: 1},
		ScaleLabel: &chartjs.ScaleLabel{FontSize: 16, LabelString: "P(X <= n)", Display: chartjs.True}})
	if err != nil {
		return err
	}
	ya, err := chart.AddYAxis(chartjs.Axis{Type: chartjs.Linear, Position: chartjs.Left,
		ScaleLabel: &chartjs.ScaleLabel{FontSize: 16, LabelString: "n", Display: chartjs.True}})
	if err != nil {
		return err
	}

	for i, c := range curves {
		col := rgba(plotutil.Color(i))
		dataset := chartjs.Dataset{Data: exactValues(c), Label: fmt.Sprintf("pg = %g", c.Pg), Fill: chartjs.False,
			PointRadius: 0, BorderWidth: 2, BorderColor: col, BackgroundColor: col, PointHitRadius: 6}
		dataset.XAxisID = xa
		dataset.YAxisID = ya
		chart.AddDataset(dataset)

		if o.Approx {
			av, err := approxValues(c, o)
			if err != nil {
				return err
			}
			ds := chartjs.Dataset{Data: av, Label: fmt.Sprintf("pg = %g, approximation", c.Pg), Fill: chartjs.False,
				PointRadius: 4, BorderWidth: 0, BorderColor: col, PointBackgroundColor: col, BackgroundColor: col,
				ShowLine: chartjs.False, PointHitRadius: 6}
			ds.XAxisID = xa
			ds.YAxisID = ya
			chart.AddDataset(ds)
		}
	}
	chart.Options.Responsive = chartjs.False
	chart.Options.Tooltip = &chartjs.Tooltip{Mode: "nearest"}
	link := template.HTML(fmt.Sprintf("<p>A: %d, M: %d, mode: %s</p>", o.A, o.M, o.Mode))
	return chart.SaveHTML(w, map[string]interface{}{"width": 850, "height": 550, "customHTML": link})
}
