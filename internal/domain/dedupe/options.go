package dedupe

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithNameMerging enables or disables merging builders by display name.
// When disabled, records without a talent protocol id fall back to the
// sponsor-scoped id key and never merge across sponsors.
func WithNameMerging(enabled bool) Option {
	return func(r *Resolver) {
		r.mergeByName = enabled
	}
}
