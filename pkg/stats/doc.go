// Package stats computes descriptive statistics and correlation over aligned
// collections.
//
//	c, _ := builder.Result()
//	r, err := stats.CollectionCorrelation(c)
//	if errors.Is(err, stats.ErrInsufficientData) {
//	    // fewer than two pairs, or one side is constant
//	}
//
// Summary describes one side:
//
//	xs, _ := c.Values()
//	s := stats.Describe(xs)
//	fmt.Printf("n=%d mean=%.2f std=%.2f\n", s.Count, s.Mean, s.Std)
package stats
