package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/corrkit/corrkit/pkg/cache"
	"github.com/corrkit/corrkit/pkg/series"
)

// ListExtractor selects the list of entries from a decoded document.
type ListExtractor func(root any) ([]map[string]any, error)

// EntryExtractor turns one entry into zero or more data points.
type EntryExtractor func(entry map[string]any, add AddFunc) error

// EntryFilter reports whether an entry is skipped before extraction.
type EntryFilter func(entry map[string]any) bool

// JSONBuilder builds a data source from a JSON document.
type JSONBuilder struct {
	*series.Builder

	ctx         context.Context
	supplier    Supplier
	listFn      ListExtractor
	entryFilter EntryFilter
	extractor   EntryExtractor
	logger      zerolog.Logger

	text cache.Value[string]
	root cache.Value[any]
	list cache.Value[[]map[string]any]
	data cache.Value[map[series.Date]float64]
}

// NewJSONBuilder returns a builder whose document root is the entry list.
func NewJSONBuilder() *JSONBuilder {
	b := &JSONBuilder{
		ctx:    context.Background(),
		listFn: PathListExtractor(""),
		logger: zerolog.Nop(),
	}
	b.Builder = series.NewBuilder(b)
	b.text.UpdateProducer(b.fetch)
	b.root.UpdateProducer(b.decode)
	b.list.UpdateProducer(b.selectList)
	b.data.UpdateProducer(b.extract)
	return b
}

// SetContext sets the context passed to the supplier.
func (b *JSONBuilder) SetContext(ctx context.Context) *JSONBuilder {
	b.ctx = ctx
	return b
}

// SetLogger sets the logger used for extraction warnings.
func (b *JSONBuilder) SetLogger(logger zerolog.Logger) *JSONBuilder {
	b.logger = logger
	return b
}

// SetSourceSupplier sets where the document comes from. Everything derived
// from the previous document is dropped.
func (b *JSONBuilder) SetSourceSupplier(s Supplier) *JSONBuilder {
	b.supplier = s
	b.text.ClearCache()
	b.root.ClearCache()
	b.list.ClearCache()
	b.data.ClearCache()
	b.NameValue().ClearCache()
	b.UnitValue().ClearCache()
	return b
}

// SetListExtractor sets how the entry list is found in the document.
func (b *JSONBuilder) SetListExtractor(f ListExtractor) *JSONBuilder {
	b.listFn = f
	b.list.ClearCache()
	b.data.ClearCache()
	return b
}

// SetEntryFilter sets the entry filter. Entries for which f returns true
// are skipped.
func (b *JSONBuilder) SetEntryFilter(f EntryFilter) *JSONBuilder {
	b.entryFilter = f
	b.data.ClearCache()
	return b
}

// SetDataExtractor sets the entry extractor.
func (b *JSONBuilder) SetDataExtractor(e EntryExtractor) *JSONBuilder {
	b.extractor = e
	b.data.ClearCache()
	return b
}

// SetNameExtractor derives the source name from the decoded document.
func (b *JSONBuilder) SetNameExtractor(f func(root any) (string, error)) *JSONBuilder {
	b.NameValue().UpdateProducer(b.fromRoot(f))
	return b
}

// SetUnitExtractor derives the source unit from the decoded document.
func (b *JSONBuilder) SetUnitExtractor(f func(root any) (string, error)) *JSONBuilder {
	b.UnitValue().UpdateProducer(b.fromRoot(f))
	return b
}

// SetName sets a constant source name.
func (b *JSONBuilder) SetName(name string) *JSONBuilder {
	b.Builder.SetName(name)
	return b
}

// SetUnit sets a constant source unit.
func (b *JSONBuilder) SetUnit(unit string) *JSONBuilder {
	b.Builder.SetUnit(unit)
	return b
}

// SetDataFilter sets the entry filter applied after extraction.
func (b *JSONBuilder) SetDataFilter(f series.Filter) *JSONBuilder {
	b.Builder.SetDataFilter(f)
	return b
}

// SetProvenance records where the data comes from.
func (b *JSONBuilder) SetProvenance(name, link string) *JSONBuilder {
	b.Builder.SetProvenance(name, link)
	return b
}

// SetCaching toggles memoization of every stage of the builder.
func (b *JSONBuilder) SetCaching(enabled bool) *JSONBuilder {
	b.Builder.SetCaching(enabled)
	b.text.SetCachingEnabled(enabled)
	b.root.SetCachingEnabled(enabled)
	b.list.SetCachingEnabled(enabled)
	b.data.SetCachingEnabled(enabled)
	return b
}

// Entries returns the selected entry list.
func (b *JSONBuilder) Entries() ([]map[string]any, error) {
	return b.list.Get()
}

// GenerateData implements series.Generator.
func (b *JSONBuilder) GenerateData() (map[series.Date]float64, error) {
	if b.supplier == nil {
		return nil, ErrNoSupplier
	}
	if b.extractor == nil {
		return nil, ErrNoExtractor
	}
	return b.data.Get()
}

func (b *JSONBuilder) fetch() (string, error) {
	if b.supplier == nil {
		return "", ErrNoSupplier
	}
	return b.supplier(b.ctx)
}

func (b *JSONBuilder) decode() (any, error) {
	text, err := b.text.Get()
	if err != nil {
		return nil, err
	}

	var root any
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return root, nil
}

func (b *JSONBuilder) fromRoot(f func(any) (string, error)) cache.Producer[string] {
	return func() (string, error) {
		root, err := b.root.Get()
		if err != nil {
			return "", err
		}
		return f(root)
	}
}

func (b *JSONBuilder) selectList() ([]map[string]any, error) {
	root, err := b.root.Get()
	if err != nil {
		return nil, err
	}
	if b.listFn == nil {
		return nil, fmt.Errorf("no list extractor")
	}
	return b.listFn(root)
}

func (b *JSONBuilder) extract() (map[series.Date]float64, error) {
	entries, err := b.list.Get()
	if err != nil {
		return nil, err
	}

	c := newCollector(b.logger)
	for i, entry := range entries {
		if b.entryFilter != nil && b.entryFilter(entry) {
			continue
		}
		if err := b.extractor(entry, c.add); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return c.data, nil
}

// Lookup walks a dotted path through nested objects and arrays. Numeric
// segments index arrays. The empty path returns v.
func Lookup(v any, path string) (any, error) {
	if path == "" {
		return v, nil
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("path %q: key %q not found", path, seg)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("path %q: invalid index %q", path, seg)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("path %q: cannot descend into %T at %q", path, cur, seg)
		}
	}
	return cur, nil
}

// PathListExtractor selects the array at path. Every element must be an
// object.
func PathListExtractor(path string) ListExtractor {
	return func(root any) ([]map[string]any, error) {
		v, err := Lookup(root, path)
		if err != nil {
			return nil, err
		}
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("path %q: expected array, got %T", path, v)
		}
		out := make([]map[string]any, 0, len(arr))
		for i, el := range arr {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("path %q: element %d is %T, not an object", path, i, el)
			}
			out = append(out, obj)
		}
		return out, nil
	}
}

// StringAt returns an extractor reading the string at path, for use with
// SetNameExtractor and SetUnitExtractor.
func StringAt(path string) func(root any) (string, error) {
	return func(root any) (string, error) {
		v, err := Lookup(root, path)
		if err != nil {
			return "", err
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("path %q: expected string, got %T", path, v)
		}
		return s, nil
	}
}

// FieldExtractor reads the date at datePath and the value at valuePath of
// each entry. Values may be numbers or numeric strings; null values are
// skipped. Dates are parsed with layout, or series.DateLayout when empty.
func FieldExtractor(datePath, valuePath, layout string) EntryExtractor {
	return func(entry map[string]any, add AddFunc) error {
		rawDate, err := Lookup(entry, datePath)
		if err != nil {
			return err
		}
		ds, ok := rawDate.(string)
		if !ok {
			return fmt.Errorf("date at %q is %T, not a string", datePath, rawDate)
		}
		date, err := series.ParseDateLayout(layout, ds)
		if err != nil {
			return err
		}

		rawValue, err := Lookup(entry, valuePath)
		if err != nil {
			return err
		}
		if rawValue == nil {
			return nil
		}
		value, err := toFloat(rawValue)
		if err != nil {
			return fmt.Errorf("value at %q: %w", valuePath, err)
		}
		add(date, value)
		return nil
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
