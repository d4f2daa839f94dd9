package sources

import (
	"github.com/rs/zerolog"

	"github.com/corrkit/corrkit/pkg/series"
)

// AddFunc records one extracted entry.
type AddFunc func(date series.Date, value float64)

// collector accumulates extracted entries. Duplicate dates keep the last
// value.
type collector struct {
	data       map[series.Date]float64
	duplicates int
	logger     zerolog.Logger
}

func newCollector(logger zerolog.Logger) *collector {
	return &collector{
		data:   make(map[series.Date]float64),
		logger: logger,
	}
}

func (c *collector) add(date series.Date, value float64) {
	if prev, ok := c.data[date]; ok {
		c.duplicates++
		c.logger.Warn().
			Str("date", date.String()).
			Float64("previous", prev).
			Float64("value", value).
			Msg("Duplicate date in source data, keeping last value")
	}
	c.data[date] = value
}
