package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
)

type ChartTool struct {
	Workspace *Workspace
}

func NewChartTool(ws *Workspace) *ChartTool {
	return &ChartTool{Workspace: ws}
}

func (c *ChartTool) Name() string {
	return "chart"
}

func (c *ChartTool) Description() string {
	return "Render a chart to a PNG image from labels and numeric values. Types: bar, line, pie."
}

func (c *ChartTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "path", Description: "Output .png file path", Required: true},
		{Name: "chart_type", Description: "bar, line or pie (default bar)"},
		{Name: "title", Description: "Chart title"},
		{Name: "labels", Description: "Category labels, e.g. [\"Jan\", \"Feb\"]", Required: true},
		{Name: "values", Description: "Numeric values, one per label", Required: true},
	}
}

func (c *ChartTool) Invoke(ctx context.Context, args map[string]any) Result {
	path, err := c.Workspace.Resolve(strArg(args, "path"))
	if err != nil {
		return Fail("cannot resolve path: %v", err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".png") {
		path += ".png"
	}

	labels, values, err := chartData(args)
	if err != nil {
		return Fail("%v", err)
	}

	title := strArg(args, "title")
	if title == "" {
		title = "Chart"
	}

	if err := c.Workspace.EnsureParent(path); err != nil {
		return Fail("failed to create directory: %v", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return Fail("failed to create file: %v", err)
	}
	defer out.Close()

	kind := strings.ToLower(strArg(args, "chart_type"))
	switch kind {
	case "", "bar", "column":
		bars := make([]chart.Value, len(values))
		for i := range values {
			bars[i] = chart.Value{Label: labels[i], Value: values[i]}
		}
		graph := chart.BarChart{
			Title:    title,
			Width:    900,
			Height:   540,
			BarWidth: 50,
			Bars:     bars,
		}
		err = graph.Render(chart.PNG, out)

	case "line":
		xs := make([]float64, len(values))
		ticks := make([]chart.Tick, len(values))
		for i := range values {
			xs[i] = float64(i)
			ticks[i] = chart.Tick{Value: float64(i), Label: labels[i]}
		}
		graph := chart.Chart{
			Title:  title,
			Width:  900,
			Height: 540,
			XAxis:  chart.XAxis{Ticks: ticks},
			Series: []chart.Series{
				chart.ContinuousSeries{XValues: xs, YValues: values},
			},
		}
		err = graph.Render(chart.PNG, out)

	case "pie":
		slices := make([]chart.Value, len(values))
		for i := range values {
			slices[i] = chart.Value{Label: labels[i], Value: values[i]}
		}
		graph := chart.PieChart{
			Title:  title,
			Width:  700,
			Height: 700,
			Values: slices,
		}
		err = graph.Render(chart.PNG, out)

	default:
		return Fail("unsupported chart_type %q: use bar, line or pie", kind)
	}

	if err != nil {
		return Fail("failed to render chart: %v", err)
	}
	return OK("Rendered %s chart with %d data points to %s", orDefault(kind, "bar"), len(values), path).WithFile(path)
}

// chartData pulls parallel labels/values lists out of the arguments,
// tolerating numeric strings in the values.
func chartData(args map[string]any) ([]string, []float64, error) {
	rawLabels := sliceArg(args, "labels")
	rawValues := sliceArg(args, "values")
	if len(rawLabels) == 0 || len(rawValues) == 0 {
		return nil, nil, fmt.Errorf("chart needs non-empty 'labels' and 'values' lists")
	}
	if len(rawLabels) != len(rawValues) {
		return nil, nil, fmt.Errorf("labels (%d) and values (%d) must have the same length", len(rawLabels), len(rawValues))
	}

	labels := make([]string, len(rawLabels))
	for i, l := range rawLabels {
		labels[i] = fmt.Sprint(l)
	}
	values := make([]float64, len(rawValues))
	for i, v := range rawValues {
		f, ok := cellValue(v).(float64)
		if !ok {
			return nil, nil, fmt.Errorf("value %d (%v) is not numeric", i+1, v)
		}
		values[i] = f
	}
	return labels, values, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
