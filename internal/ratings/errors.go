package ratings

import "errors"

var (
	// ErrUnknownMetric is returned for a metric name that is not a statistics column.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrNoEligibleCards is returned when a requested set has no card with both a
	// seen count and a value for the primary metric.
	ErrNoEligibleCards = errors.New("no eligible cards")

	// ErrNoCards is returned when the calculation produced no upload request.
	ErrNoCards = errors.New("no cards to upload")
)
