// Package engine aligns two data sources into a collection of matched value
// pairs.
//
// # Alignment
//
// Given an x and a y source, a Resolution and one MergeType per side, the
// engine:
//
//  1. maps every date of each source to its bucket key and deduplicates the
//     keys in first-occurrence order (CollectKeys);
//  2. keeps the keys present on both sides, in x order;
//  3. groups each side's values by common key, preserving date order inside
//     a bucket;
//  4. merges each bucket with the side's MergeType into one MatchedPair.
//
// Keys present on only one side are dropped; there are no partial pairs.
// Because every common key has at least one value on each side, a merge is
// never asked to reduce an empty list.
//
// # Builder
//
// CollectionBuilder memoizes the computed pairs behind a cache.Value. Only a
// change of resolution or merge type to a different value invalidates it;
// changing the title does not.
//
//	b := engine.NewCollectionBuilder(goals, rain, series.ResolutionDay).
//	    SetXMergeType(series.MergeSum).
//	    SetYMergeType(series.MergeAverage)
//
//	c, err := b.Result()
//	for key, pair := range c.All() {
//	    fmt.Println(key, pair)
//	}
package engine
