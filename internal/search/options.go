package search

// searchOptions holds per-query overrides of the engine defaults.
type searchOptions struct {
	limit    int
	andLogic bool
	labels   []string
	tags     map[string]string
}

// Option customizes a single Search call.
type Option func(*searchOptions)

func (e *Engine) defaultOptions() searchOptions {
	return searchOptions{
		limit:    e.cfg.MaxResults,
		andLogic: e.cfg.UseANDLogic,
	}
}

// WithLimit caps the number of returned results. Zero or negative
// means no cap.
func WithLimit(limit int) Option {
	return func(o *searchOptions) {
		o.limit = limit
	}
}

// WithANDLogic requires every query term to be present in a document.
func WithANDLogic() Option {
	return func(o *searchOptions) {
		o.andLogic = true
	}
}

// WithORLogic accepts documents containing any query term.
func WithORLogic() Option {
	return func(o *searchOptions) {
		o.andLogic = false
	}
}

// WithLabels restricts results to documents carrying all of the given
// labels.
func WithLabels(labels ...string) Option {
	return func(o *searchOptions) {
		o.labels = append(o.labels, labels...)
	}
}

// WithTags restricts results to documents carrying all of the given
// key-value tags.
func WithTags(tags map[string]string) Option {
	return func(o *searchOptions) {
		if o.tags == nil {
			o.tags = make(map[string]string, len(tags))
		}
		for k, v := range tags {
			o.tags[k] = v
		}
	}
}
