package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/corrkit/corrkit/pkg/cache"
	"github.com/corrkit/corrkit/pkg/series"
)

var (
	// ErrNoSupplier is returned when a builder has no source supplier.
	ErrNoSupplier = errors.New("no source supplier")

	// ErrNoExtractor is returned when a builder has no data extractor.
	ErrNoExtractor = errors.New("no data extractor")

	// ErrNegativeSkipRows is returned when the skip count is below zero.
	ErrNegativeSkipRows = errors.New("negative skip rows")
)

// RowExtractor turns one CSV record into zero or more entries.
type RowExtractor func(record []string, add AddFunc) error

// RowFilter reports whether a record is skipped before extraction.
type RowFilter func(record []string) bool

// CSVBuilder builds a data source from delimited text.
type CSVBuilder struct {
	*series.Builder

	ctx       context.Context
	supplier  Supplier
	delimiter rune
	comment   rune
	skipRows  int
	rowFilter RowFilter
	extractor RowExtractor
	logger    zerolog.Logger

	text cache.Value[string]
	rows cache.Value[[][]string]
	data cache.Value[map[series.Date]float64]
}

// NewCSVBuilder returns a builder for comma separated text.
func NewCSVBuilder() *CSVBuilder {
	b := &CSVBuilder{
		ctx:       context.Background(),
		delimiter: ',',
		logger:    zerolog.Nop(),
	}
	b.Builder = series.NewBuilder(b)
	b.text.UpdateProducer(b.fetch)
	b.rows.UpdateProducer(b.parse)
	b.data.UpdateProducer(b.extract)
	return b
}

// SetContext sets the context passed to the supplier.
func (b *CSVBuilder) SetContext(ctx context.Context) *CSVBuilder {
	b.ctx = ctx
	return b
}

// SetLogger sets the logger used for extraction warnings.
func (b *CSVBuilder) SetLogger(logger zerolog.Logger) *CSVBuilder {
	b.logger = logger
	return b
}

// SetSourceSupplier sets where the text comes from. Everything derived from
// the previous text is dropped.
func (b *CSVBuilder) SetSourceSupplier(s Supplier) *CSVBuilder {
	b.supplier = s
	b.text.ClearCache()
	b.rows.ClearCache()
	b.data.ClearCache()
	b.NameValue().ClearCache()
	b.UnitValue().ClearCache()
	return b
}

// SetDelimiter sets the field delimiter.
func (b *CSVBuilder) SetDelimiter(r rune) *CSVBuilder {
	b.delimiter = r
	b.rows.ClearCache()
	b.data.ClearCache()
	return b
}

// SetComment sets the comment rune. Zero disables comments.
func (b *CSVBuilder) SetComment(r rune) *CSVBuilder {
	b.comment = r
	b.rows.ClearCache()
	b.data.ClearCache()
	return b
}

// SetSkipRows skips the first n records, typically headers. A negative n
// fails the next read with ErrNegativeSkipRows.
func (b *CSVBuilder) SetSkipRows(n int) *CSVBuilder {
	b.skipRows = n
	b.rows.ClearCache()
	b.data.ClearCache()
	return b
}

// SetRowFilter sets the record filter. Records for which f returns true
// are skipped.
func (b *CSVBuilder) SetRowFilter(f RowFilter) *CSVBuilder {
	b.rowFilter = f
	b.data.ClearCache()
	return b
}

// SetDataExtractor sets the record extractor.
func (b *CSVBuilder) SetDataExtractor(e RowExtractor) *CSVBuilder {
	b.extractor = e
	b.data.ClearCache()
	return b
}

// SetNameExtractor derives the source name from the raw text.
func (b *CSVBuilder) SetNameExtractor(f func(text string) (string, error)) *CSVBuilder {
	b.NameValue().UpdateProducer(b.fromText(f))
	return b
}

// SetUnitExtractor derives the source unit from the raw text.
func (b *CSVBuilder) SetUnitExtractor(f func(text string) (string, error)) *CSVBuilder {
	b.UnitValue().UpdateProducer(b.fromText(f))
	return b
}

// SetName sets a constant source name.
func (b *CSVBuilder) SetName(name string) *CSVBuilder {
	b.Builder.SetName(name)
	return b
}

// SetUnit sets a constant source unit.
func (b *CSVBuilder) SetUnit(unit string) *CSVBuilder {
	b.Builder.SetUnit(unit)
	return b
}

// SetDataFilter sets the entry filter applied after extraction.
func (b *CSVBuilder) SetDataFilter(f series.Filter) *CSVBuilder {
	b.Builder.SetDataFilter(f)
	return b
}

// SetProvenance records where the data comes from.
func (b *CSVBuilder) SetProvenance(name, link string) *CSVBuilder {
	b.Builder.SetProvenance(name, link)
	return b
}

// SetCaching toggles memoization of every stage of the builder.
func (b *CSVBuilder) SetCaching(enabled bool) *CSVBuilder {
	b.Builder.SetCaching(enabled)
	b.text.SetCachingEnabled(enabled)
	b.rows.SetCachingEnabled(enabled)
	b.data.SetCachingEnabled(enabled)
	return b
}

// Rows returns the parsed records after skipped rows.
func (b *CSVBuilder) Rows() ([][]string, error) {
	return b.rows.Get()
}

// GenerateData implements series.Generator.
func (b *CSVBuilder) GenerateData() (map[series.Date]float64, error) {
	if b.supplier == nil {
		return nil, ErrNoSupplier
	}
	if b.extractor == nil {
		return nil, ErrNoExtractor
	}
	return b.data.Get()
}

func (b *CSVBuilder) fetch() (string, error) {
	if b.supplier == nil {
		return "", ErrNoSupplier
	}
	return b.supplier(b.ctx)
}

func (b *CSVBuilder) fromText(f func(string) (string, error)) cache.Producer[string] {
	return func() (string, error) {
		text, err := b.text.Get()
		if err != nil {
			return "", err
		}
		return f(text)
	}
}

func (b *CSVBuilder) parse() ([][]string, error) {
	if b.skipRows < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSkipRows, b.skipRows)
	}

	text, err := b.text.Get()
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = b.delimiter
	r.Comment = b.comment
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if b.skipRows >= len(records) {
		return [][]string{}, nil
	}
	return records[b.skipRows:], nil
}

func (b *CSVBuilder) extract() (map[series.Date]float64, error) {
	rows, err := b.rows.Get()
	if err != nil {
		return nil, err
	}

	c := newCollector(b.logger)
	for i, record := range rows {
		if b.rowFilter != nil && b.rowFilter(record) {
			continue
		}
		if err := b.extractor(record, c.add); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+b.skipRows+1, err)
		}
	}
	return c.data, nil
}

// ColumnExtractor reads the date from column dateCol and the value from
// column valueCol. Dates are parsed with layout, or series.DateLayout when
// layout is empty. Records with an empty value cell are skipped.
func ColumnExtractor(dateCol, valueCol int, layout string) RowExtractor {
	if layout == "" {
		layout = series.DateLayout
	}
	return func(record []string, add AddFunc) error {
		if dateCol < 0 || valueCol < 0 || dateCol >= len(record) || valueCol >= len(record) {
			return fmt.Errorf("record has %d fields, need columns %d and %d", len(record), dateCol, valueCol)
		}

		raw := strings.TrimSpace(record[valueCol])
		if raw == "" {
			return nil
		}

		date, err := series.ParseDateLayout(layout, strings.TrimSpace(record[dateCol]))
		if err != nil {
			return err
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse value %q: %w", raw, err)
		}
		add(date, value)
		return nil
	}
}
