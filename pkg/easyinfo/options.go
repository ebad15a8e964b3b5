package easyinfo

// Option adjusts a single call.
type Option func(*callOptions)

type callOptions struct {
	name     string
	repr     string
	maxDepth int
	path     string
	dir      string
	sort     *bool
	verbose  *bool
}

func collect(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Name uses name instead of the variable name found at the call site.
func Name(name string) Option {
	return func(o *callOptions) { o.name = name }
}

// Repr prints repr in place of the value, or in place of the measured shape.
func Repr(repr string) Option {
	return func(o *callOptions) { o.repr = repr }
}

// MaxDepth bounds how many nested levels a shape description descends.
func MaxDepth(n int) Option {
	return func(o *callOptions) { o.maxDepth = n }
}

// Path selects the save/load target: a bare extension (".json"), a directory
// ("runs/today", remembered for later calls) or a file ("out/scores.csv").
func Path(path string) Option {
	return func(o *callOptions) { o.path = path }
}

// Dir overrides the save/load directory for one call.
func Dir(dir string) Option {
	return func(o *callOptions) { o.dir = dir }
}

// Unsorted keeps map entries in key order in .txt output.
func Unsorted() Option {
	return func(o *callOptions) {
		f := false
		o.sort = &f
	}
}

// Verbose overrides the inspector's verbosity for one call: long description
// lines for the describe helpers, printed notices for Save, Load and EndWith.
func Verbose(v bool) Option {
	return func(o *callOptions) { o.verbose = &v }
}

// Quiet is Verbose(false).
func Quiet() Option {
	return Verbose(false)
}
