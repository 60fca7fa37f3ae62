package ratings

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/storage/models"
)

// CommentMetric is one "CODE:value" pair in a generated comment.
type CommentMetric struct {
	Metric Metric `json:"metric" toml:"metric"`
	Code   string `json:"code" toml:"code"`
}

// Formatter renders metric values with the number conventions of a locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for a BCP 47 locale such as "en-US" or "de".
// An empty or unparseable locale falls back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format renders one value according to the metric kind.
func (f *Formatter) Format(m Metric, value float64) string {
	switch m.Kind() {
	case KindCount:
		return f.printer.Sprintf("%d", int64(value))
	case KindAverage:
		return f.printer.Sprintf("%.2f", value)
	default:
		return f.printer.Sprintf("%.2f%%", value*100)
	}
}

// Comment joins the non-null comment metrics of a card. Returns nil when no
// metric has a value.
func (f *Formatter) Comment(stats *models.CardStatistics, metrics []CommentMetric) *string {
	var parts []string
	for _, cm := range metrics {
		value, ok := cm.Metric.Value(stats)
		if !ok {
			continue
		}
		parts = append(parts, cm.Code+":"+f.Format(cm.Metric, value))
	}
	if len(parts) == 0 {
		return nil
	}
	comment := strings.Join(parts, " ")
	return &comment
}
