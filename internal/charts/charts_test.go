package charts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

func TestDistributionPoints(t *testing.T) {
	dist := models.RatingDistribution{Set: "DSK", Unrated: 2}
	dist.Counts[3] = 5
	dist.Counts[10] = 1

	points := DistributionPoints(dist)
	if len(points) != 12 {
		t.Fatalf("Expected 12 points, got %d", len(points))
	}
	if points[3].Label != "3" || points[3].Value != 5 {
		t.Errorf("Expected rating 3 with 5 cards, got %+v", points[3])
	}
	if points[11].Label != "Unrated" || points[11].Value != 2 {
		t.Errorf("Expected 2 unrated cards last, got %+v", points[11])
	}

	dist.Unrated = 0
	if points := DistributionPoints(dist); len(points) != 11 {
		t.Errorf("Expected no unrated bar, got %d points", len(points))
	}
}

func TestRenderRatingDistribution(t *testing.T) {
	dist := models.RatingDistribution{Set: "DSK"}
	dist.Counts[5] = 12

	var buf bytes.Buffer
	if err := RenderRatingDistribution(&buf, dist, DefaultChartConfig()); err != nil {
		t.Fatalf("RenderRatingDistribution failed: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "<html") {
		t.Error("Expected an HTML page")
	}
	if !strings.Contains(html, "DSK rating distribution") {
		t.Error("Expected the default title")
	}
	if !strings.Contains(html, "echarts") {
		t.Error("Expected the echarts script")
	}
}
