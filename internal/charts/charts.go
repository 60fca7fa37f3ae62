package charts

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title    string   // Chart title
	Subtitle string   // Chart subtitle
	Width    string   // Chart width (e.g., "900px")
	Height   string   // Chart height (e.g., "500px")
	Theme    string   // Chart theme
	Colors   []string // Custom colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "900px",
		Height: "500px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75"},
	}
}

// DataPoint represents a single bar in a chart.
type DataPoint struct {
	Label string
	Value float64
}

// DistributionPoints returns one point per rating 0-10, followed by the
// unrated cards when there are any.
func DistributionPoints(dist models.RatingDistribution) []DataPoint {
	points := make([]DataPoint, 0, len(dist.Counts)+1)
	for rating, count := range dist.Counts {
		points = append(points, DataPoint{Label: strconv.Itoa(rating), Value: float64(count)})
	}
	if dist.Unrated > 0 {
		points = append(points, DataPoint{Label: "Unrated", Value: float64(dist.Unrated)})
	}
	return points
}

// RenderRatingDistribution writes an interactive bar chart of the ratings of
// one set as a standalone HTML page.
func RenderRatingDistribution(w io.Writer, dist models.RatingDistribution, config ChartConfig) error {
	if config.Title == "" {
		config.Title = fmt.Sprintf("%s rating distribution", dist.Set)
	}
	if config.Subtitle == "" {
		config.Subtitle = fmt.Sprintf("%d cards", dist.Total())
	}
	if len(config.Colors) == 0 {
		config.Colors = DefaultChartConfig().Colors
	}

	return renderBarChart(w, "Cards", DistributionPoints(dist), config)
}

func renderBarChart(w io.Writer, series string, data []DataPoint, config ChartConfig) error {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: config.Title,
			Width:     config.Width,
			Height:    config.Height,
			Theme:     config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithColorsOpts(opts.Colors{
			config.Colors[0],
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Rating"}),
		charts.WithYAxisOpts(opts.YAxis{Name: series}),
	)

	xLabels := make([]string, len(data))
	yData := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
	}

	bar.SetXAxis(xLabels).
		AddSeries(series, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:     opts.Bool(true),
				Position: "top",
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
