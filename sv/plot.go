package sv

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// WriteChart renders the sampled insert-size distribution to a standalone
// HTML page next to the other output artifacts.
func WriteChart(h Histogram, stats InsertStats, sample string, outputHTML string) error {
	sizes := make([]int, 0, len(h))
	total := 0
	for size, n := range h {
		sizes = append(sizes, size)
		total += n
	}
	if total == 0 {
		return fmt.Errorf("histogram is empty")
	}
	sort.Ints(sizes)

	var x []int
	var yData []opts.LineData
	for _, size := range sizes {
		x = append(x, size)
		yData = append(yData, opts.LineData{Value: float64(h[size]) / float64(total)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    sample + " insert size distribution",
			Subtitle: fmt.Sprintf("mean %.1f, stdev %.1f, read length %d", stats.Mean, stats.Stdev, stats.ReadLength),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Insert size (bp)"}),
	)
	line.SetXAxis(x).AddSeries(sample, yData)

	f, err := os.Create(outputHTML)
	if err != nil {
		return err
	}
	if err := line.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
