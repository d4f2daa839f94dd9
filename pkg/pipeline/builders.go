package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/engine"
	"github.com/corrkit/corrkit/pkg/series"
	"github.com/corrkit/corrkit/pkg/sources"
	"github.com/corrkit/corrkit/pkg/telemetry"
)

// NewSourceBuilder turns a source configuration into a configured builder.
// filters may be nil when sc has no filter.
func NewSourceBuilder(ctx context.Context, sc *config.SourceConfig, client *http.Client, filters *config.FilterCompiler, log *telemetry.Logger) (engine.SourceBuilder, error) {
	var supplier sources.Supplier
	switch {
	case sc.URL != "":
		supplier = sources.URLSupplier(client, sc.URL)
	case sc.Path != "":
		supplier = sources.FileSupplier(sc.Path)
	default:
		return nil, fmt.Errorf("source %q has neither path nor url", sc.Name)
	}

	var filter series.Filter
	if sc.Filter != "" {
		if filters == nil {
			filters = config.NewFilterCompiler()
		}
		f, err := filters.Compile(sc.Filter)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	switch sc.Format {
	case config.FormatCSV:
		if sc.CSV == nil {
			return nil, fmt.Errorf("source %q: missing csv options", sc.Name)
		}
		b := sources.NewCSVBuilder().
			SetContext(ctx).
			SetLogger(log.Zerolog()).
			SetSourceSupplier(supplier).
			SetDelimiter(sc.CSV.DelimiterRune()).
			SetComment(sc.CSV.CommentRune()).
			SetSkipRows(sc.CSV.SkipRows).
			SetDataExtractor(sources.ColumnExtractor(sc.CSV.DateColumn, sc.CSV.ValueColumn, sc.CSV.DateLayout)).
			SetName(sc.Name).
			SetUnit(sc.Unit).
			SetProvenance(sc.SourceName, sc.SourceLink).
			SetCaching(sc.CachingEnabled())
		if filter != nil {
			b.SetDataFilter(filter)
		}
		return b, nil

	case config.FormatJSON:
		if sc.JSON == nil {
			return nil, fmt.Errorf("source %q: missing json options", sc.Name)
		}
		b := sources.NewJSONBuilder().
			SetContext(ctx).
			SetLogger(log.Zerolog()).
			SetSourceSupplier(supplier).
			SetListExtractor(sources.PathListExtractor(sc.JSON.ListPath)).
			SetDataExtractor(sources.FieldExtractor(sc.JSON.DatePath, sc.JSON.ValuePath, sc.JSON.DateLayout)).
			SetName(sc.Name).
			SetUnit(sc.Unit).
			SetProvenance(sc.SourceName, sc.SourceLink).
			SetCaching(sc.CachingEnabled())
		if filter != nil {
			b.SetDataFilter(filter)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("source %q: unsupported format %q", sc.Name, sc.Format)
	}
}
