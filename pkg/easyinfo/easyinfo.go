// Package easyinfo provides print-debugging helpers that know the name of the
// variable they were given.
//
//	scores := []int{3, 1, 2}
//	easyinfo.VPrint(scores) // scores (line 12) <[]int>: [3 1 2]
//	easyinfo.LPrint(grid)   // grid (line 13) shape: 3 x 4
//
//	easyinfo.Start()
//	work()
//	easyinfo.End() // Total time: 1.2s
//
//	easyinfo.Save(scores)                     // Saved scores to scores.gob
//	scores, err := easyinfo.Load[[]int]()     // Loaded scores from scores.gob
//
// Names are recovered by reading the caller's source line at run time, so they
// are only available while the source files are on disk where the binary was
// built. When they are not, the name prints as "_". The scan is textual: a call
// split over several lines or two calls to the same helper on one line may
// resolve the wrong text.
//
// The package-level functions share one Inspector; New creates independent ones.
package easyinfo

import (
	"sync/atomic"
	"time"
)

var std atomic.Pointer[Inspector]

func init() {
	std.Store(New(nil))
}

// Default returns the inspector behind the package-level functions.
func Default() *Inspector {
	return std.Load()
}

// SetDefault replaces the inspector behind the package-level functions.
func SetDefault(in *Inspector) {
	if in != nil {
		std.Store(in)
	}
}

// VStr describes v as "name (line n) <type>: value".
func VStr(v any, opts ...Option) string {
	return Default().vstr("VStr", v, collect(opts))
}

// VPrint prints VStr's description.
func VPrint(v any, opts ...Option) {
	Default().vprint("VPrint", v, collect(opts))
}

// EPrint writes its arguments to standard error.
func EPrint(args ...any) {
	Default().EPrint(args...)
}

// LStr describes the length or shape of v.
func LStr(v any, opts ...Option) string {
	return Default().lstr("LStr", v, collect(opts))
}

// LPrint prints LStr's description.
func LPrint(v any, opts ...Option) {
	Default().lprint("LPrint", v, collect(opts))
}

// AStr is LStr and VStr together.
func AStr(v any, opts ...Option) string {
	return Default().astr("AStr", v, collect(opts))
}

// APrint prints AStr's description.
func APrint(v any, opts ...Option) {
	Default().aprint("APrint", v, collect(opts))
}

// VName returns the expression passed to VName.
func VName(v any) string {
	return Default().vname("VName")
}

// VLine returns the caller's line number.
func VLine() int {
	return Default().vline()
}

// Start resets the shared timer. Before the first Start, End measures from
// program start.
func Start() {
	Default().Start()
}

// End reports elapsed time on the shared timer.
func End(msg ...string) time.Duration {
	return Default().End(msg...)
}

// EndWith is End with per-call options such as Quiet.
func EndWith(msg string, opts ...Option) time.Duration {
	return Default().EndWith(msg, opts...)
}

// StartID starts the shared timer named id.
func StartID(id string) {
	Default().StartID(id)
}

// EndID reports elapsed time on the shared timer named id.
func EndID(id string, msg ...string) time.Duration {
	return Default().EndID(id, msg...)
}

// EndIDWith is EndID with per-call options.
func EndIDWith(id, msg string, opts ...Option) time.Duration {
	return Default().EndIDWith(id, msg, opts...)
}

// Save writes v to a file named after the variable passed to Save.
func Save(v any, opts ...Option) (string, error) {
	return Default().save("Save", v, collect(opts))
}

// Load reads a value of type T from the file named after the variable that
// receives it:
//
//	scores, err := easyinfo.Load[[]int]() // reads scores.gob
func Load[T any](opts ...Option) (T, error) {
	var v T
	err := Default().load("Load", &v, collect(opts))
	return v, err
}

// LoadInto reads into ptr from the file named after the variable ptr points to:
//
//	var scores []int
//	err := easyinfo.LoadInto(&scores, easyinfo.Path(".json"))
func LoadInto(ptr any, opts ...Option) error {
	return Default().loadInto("LoadInto", ptr, collect(opts))
}
