package summary

// WithRenderer replaces the renderer used by WriteReport.
func WithRenderer(render func(Input) (string, error)) Option {
	return func(o *options) {
		o.render = render
	}
}
