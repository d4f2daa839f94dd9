package engine

import "github.com/corrkit/corrkit/pkg/series"

// CollectKeys returns the distinct bucket keys of source under res, in
// first-occurrence order over ascending dates.
func CollectKeys(source *series.Source, res series.Resolution) []string {
	if source == nil {
		return nil
	}
	seen := make(map[string]struct{}, source.Len())
	keys := make([]string, 0, source.Len())
	for d := range source.All() {
		k := res.Key(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// commonKeys keeps the keys of xs that also occur in ys, in xs order.
func commonKeys(xs, ys []string) []string {
	inY := make(map[string]struct{}, len(ys))
	for _, k := range ys {
		inY[k] = struct{}{}
	}
	out := make([]string, 0, min(len(xs), len(ys)))
	for _, k := range xs {
		if _, ok := inY[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// groupByKey collects the values of source per bucket key, restricted to keep.
func groupByKey(source *series.Source, res series.Resolution, keep map[string]struct{}) map[string][]float64 {
	groups := make(map[string][]float64, len(keep))
	for d, v := range source.All() {
		k := res.Key(d)
		if _, ok := keep[k]; !ok {
			continue
		}
		groups[k] = append(groups[k], v)
	}
	return groups
}

// MatchData aligns x and y at res, merging each bucket with the given
// strategies. It returns the common keys in x order and the pair per key.
func MatchData(x *series.Source, xm series.MergeType, y *series.Source, ym series.MergeType, res series.Resolution) ([]string, map[string]MatchedPair) {
	keys := commonKeys(CollectKeys(x, res), CollectKeys(y, res))
	pairs := make(map[string]MatchedPair, len(keys))
	if len(keys) == 0 {
		return keys, pairs
	}

	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}
	xg := groupByKey(x, res, keep)
	yg := groupByKey(y, res, keep)

	for _, k := range keys {
		pairs[k] = MatchedPair{
			X: xm.Merge(xg[k]),
			Y: ym.Merge(yg[k]),
		}
	}
	return keys, pairs
}
