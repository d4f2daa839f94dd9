// Package sources provides data source builders that read CSV or JSON text
// from a file, a URL or memory.
//
// Every builder embeds *series.Builder, so validation, filtering and
// provenance behave the same for all formats. The intermediate stages are
// memoized: text, parsed rows or decoded document, and extracted data are
// each held in a cache.Value and only recomputed after the stage they
// depend on changes.
//
//	b := sources.NewCSVBuilder().
//	    SetSourceSupplier(sources.FileSupplier("goals.csv")).
//	    SetDataExtractor(sources.ColumnExtractor(0, 3, "")).
//	    SetName("Goals").
//	    SetUnit("goals")
//
//	src, err := b.Build()
//
// Extraction adds entries through an AddFunc. A date added twice keeps the
// last value and logs a warning.
package sources
