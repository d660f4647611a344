package reconciler

// options configures a reconciler.
type options struct {
	normalizeCodes bool
}

func defaultOptions() *options {
	return &options{}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithNormalizedCodes makes code matching ignore case and surrounding
// whitespace. Matching is exact by default.
func WithNormalizedCodes(enabled bool) Option {
	return func(o *options) error {
		o.normalizeCodes = enabled
		return nil
	}
}
