package duplicate

// Option applies a configuration option to the Finder.
type Option func(*Finder)

// WithThreshold overrides the similarity threshold. Values outside (0,1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(f *Finder) {
		if threshold > 0 && threshold <= 1 {
			f.threshold = threshold
		}
	}
}
