package analysis

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lidar.diag/internal/report"
)

// RenderChart writes a standalone HTML bar chart of heuristic scan
// points per tested configuration, in matrix order.
func RenderChart(doc *report.Document, w io.Writer) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "RPLIDAR diagnostic results",
			Subtitle: fmt.Sprintf("run %s", doc.Timestamp),
		}),
	)

	labels := make([]string, 0, len(doc.TestResults))
	points := make([]opts.BarData, 0, len(doc.TestResults))
	for _, r := range doc.TestResults {
		labels = append(labels, fmt.Sprintf("%s @ %d", r.Port, r.BaudRate))
		points = append(points, opts.BarData{Value: r.ScanPointsReceived})
	}

	bar.SetXAxis(labels).AddSeries("scan points", points)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
