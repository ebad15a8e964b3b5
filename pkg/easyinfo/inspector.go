package easyinfo

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"easyinfo/internal/callsite"
	"easyinfo/internal/config"
	"easyinfo/internal/describe"
	"easyinfo/internal/logging"
	"easyinfo/internal/persist"
	"easyinfo/internal/timing"
)

// Config is the inspector configuration; see DefaultConfig and LoadConfig.
type Config = config.Config

// DefaultConfig returns the settings the package-level functions start with.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadConfig reads a YAML config file, returning defaults when it does not exist.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// siteDepth is the distance from Inspector.site to the user's code:
// site <- internal method <- exported function or method <- caller.
const siteDepth = 3

// Inspector holds the state behind the debugging helpers: output writers, the
// elapsed-time tracker and the save directory. Use New for an isolated instance
// or the package-level functions for the shared default.
type Inspector struct {
	mu     sync.Mutex
	cfg    Config
	out    io.Writer
	errOut io.Writer
	format *describe.Formatter
	timer  *timing.Tracker
	store  *persist.Store
}

// New creates an inspector. A nil cfg means DefaultConfig. When cfg.Logging has
// debug_mode set, New also installs the internal loggers it describes.
func New(cfg *Config) *Inspector {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := *cfg

	if c.Logging.DebugMode {
		if err := logging.Initialize(c.Logging); err != nil {
			fmt.Fprintf(os.Stderr, "easyinfo: logging disabled: %v\n", err)
		}
	}

	out := io.Writer(os.Stdout)
	if c.Output == "stderr" {
		out = os.Stderr
	}
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}
	c.MaxDepth = maxDepth

	return &Inspector{
		cfg:    c,
		out:    out,
		errOut: os.Stderr,
		format: describe.NewFormatter(c.Color),
		timer:  timing.NewTracker(out),
		store: persist.NewStore(persist.Options{
			Dir:        c.Persist.SaveDir,
			DefaultExt: c.Persist.DefaultFormat,
			Sort:       c.Persist.Sort,
			Verbose:    c.Notices,
			Out:        out,
		}),
	}
}

// SetOutput redirects printed lines, timer checkpoints and save/load notices.
func (in *Inspector) SetOutput(w io.Writer) {
	in.mu.Lock()
	in.out = w
	in.mu.Unlock()
	in.timer.SetOutput(w)
	in.store.SetOutput(w)
}

// SetErrOutput redirects EPrint.
func (in *Inspector) SetErrOutput(w io.Writer) {
	in.mu.Lock()
	in.errOut = w
	in.mu.Unlock()
}

func (in *Inspector) writers() (out, errOut io.Writer) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.out, in.errOut
}

// site returns the user's call site. It must be called directly from the
// unexported method that an exported entry point delegates to.
func (in *Inspector) site() callsite.Site {
	s, err := callsite.Lookup(siteDepth)
	if err != nil {
		logging.CallsiteDebug("call site unavailable: %v", err)
	}
	return s
}

func (in *Inspector) verbose(o callOptions) bool {
	if o.verbose != nil {
		return *o.verbose
	}
	return in.cfg.Verbose
}

func (in *Inspector) notices(o callOptions) bool {
	if o.verbose != nil {
		return *o.verbose
	}
	return in.cfg.Notices
}

// VStr describes v as "name (line n) <type>: value". The name is the expression
// passed to VStr at the call site.
func (in *Inspector) VStr(v any, opts ...Option) string {
	return in.vstr("VStr", v, collect(opts))
}

// VPrint prints VStr's description.
func (in *Inspector) VPrint(v any, opts ...Option) {
	in.vprint("VPrint", v, collect(opts))
}

func (in *Inspector) vstr(fn string, v any, o callOptions) string {
	s := in.site()
	return in.valueLine(s, fn, v, o)
}

func (in *Inspector) vprint(fn string, v any, o callOptions) {
	s := in.site()
	out, _ := in.writers()
	fmt.Fprintln(out, in.valueLine(s, fn, v, o))
}

func (in *Inspector) valueLine(s callsite.Site, fn string, v any, o callOptions) string {
	name := o.name
	if name == "" {
		name = s.Arg(fn, 0)
	}
	logging.DescribeDebug("%s at line %d resolved %q", fn, s.Frame.Line, name)
	return in.format.Value(name, s.Frame.Line, v, o.repr, in.verbose(o))
}

// LStr describes the length or shape of v as "name (line n) shape: 3 x 4".
func (in *Inspector) LStr(v any, opts ...Option) string {
	return in.lstr("LStr", v, collect(opts))
}

// LPrint prints LStr's description.
func (in *Inspector) LPrint(v any, opts ...Option) {
	in.lprint("LPrint", v, collect(opts))
}

func (in *Inspector) lstr(fn string, v any, o callOptions) string {
	s := in.site()
	return in.shapeLine(s, fn, v, o)
}

func (in *Inspector) lprint(fn string, v any, o callOptions) {
	s := in.site()
	out, _ := in.writers()
	fmt.Fprintln(out, in.shapeLine(s, fn, v, o))
}

func (in *Inspector) shapeLine(s callsite.Site, fn string, v any, o callOptions) string {
	name := o.name
	if name == "" {
		name = s.Arg(fn, 0)
	}
	depth := o.maxDepth
	if depth <= 0 {
		depth = in.cfg.MaxDepth
	}

	label, val := describe.Measure(v, depth)
	if o.repr != "" {
		val = o.repr
	}
	if logging.IsDebugMode() {
		logging.DescribeDebug("%s at line %d: %s %s", fn, s.Frame.Line, label, val)
	}
	return in.format.Shape(name, s.Frame.Line, label, val, in.verbose(o))
}

// AStr is LStr followed on the next line by VStr with the name replaced by a tab.
func (in *Inspector) AStr(v any, opts ...Option) string {
	return in.astr("AStr", v, collect(opts))
}

// APrint prints AStr's description.
func (in *Inspector) APrint(v any, opts ...Option) {
	in.aprint("APrint", v, collect(opts))
}

func (in *Inspector) astr(fn string, v any, o callOptions) string {
	s := in.site()
	return in.allLines(s, fn, v, o)
}

func (in *Inspector) aprint(fn string, v any, o callOptions) {
	s := in.site()
	out, _ := in.writers()
	fmt.Fprintln(out, in.allLines(s, fn, v, o))
}

func (in *Inspector) allLines(s callsite.Site, fn string, v any, o callOptions) string {
	shape := in.shapeLine(s, fn, v, callOptions{name: o.name, maxDepth: o.maxDepth, verbose: o.verbose})
	value := o
	value.name = "\t"
	return shape + "\n" + in.valueLine(s, fn, v, value)
}

// EPrint writes its arguments to standard error, separated by spaces.
func (in *Inspector) EPrint(args ...any) {
	_, errOut := in.writers()
	fmt.Fprintln(errOut, args...)
}

// VName returns the expression passed to VName at the call site, or "" when it
// cannot be recovered.
func (in *Inspector) VName(v any) string {
	return in.vname("VName")
}

func (in *Inspector) vname(fn string) string {
	s := in.site()
	return s.Arg(fn, 0)
}

// VLine returns the line number of the call to VLine, or 0 when unknown.
func (in *Inspector) VLine() int {
	return in.vline()
}

func (in *Inspector) vline() int {
	return in.site().Frame.Line
}

// Start resets the inspector's timer.
func (in *Inspector) Start() {
	in.timer.Start()
}

// End prints the time since Start and since the previous End and returns the
// time since the previous End. The message defaults to "Total time". Nothing is
// printed when the config turns notices off.
func (in *Inspector) End(msg ...string) time.Duration {
	return in.timer.End(strings.Join(msg, " "), in.cfg.Notices)
}

// EndWith is End with per-call options; Quiet records the checkpoint without
// printing it and Verbose(true) prints it even with notices off.
func (in *Inspector) EndWith(msg string, opts ...Option) time.Duration {
	return in.timer.End(msg, in.notices(collect(opts)))
}

// StartID starts the timer named id, independent of Start/End.
func (in *Inspector) StartID(id string) {
	in.timer.StartID(id)
}

// EndID is End for the timer named id. The message defaults to id.
func (in *Inspector) EndID(id string, msg ...string) time.Duration {
	return in.timer.EndID(id, strings.Join(msg, " "), in.cfg.Notices)
}

// EndIDWith is EndWith for the timer named id.
func (in *Inspector) EndIDWith(id, msg string, opts ...Option) time.Duration {
	return in.timer.EndID(id, msg, in.notices(collect(opts)))
}

// Save writes v to a file named after the variable passed to Save and returns the
// path written. See Path for choosing the format and location.
func (in *Inspector) Save(v any, opts ...Option) (string, error) {
	return in.save("Save", v, collect(opts))
}

func (in *Inspector) save(fn string, v any, o callOptions) (string, error) {
	s := in.site()
	name := o.name
	if name == "" {
		name = s.Arg(fn, 0)
	}
	return in.store.Save(v, in.request(name, o))
}

// LoadInto reads into ptr from the file named after the variable whose address is
// passed to LoadInto.
func (in *Inspector) LoadInto(ptr any, opts ...Option) error {
	return in.loadInto("LoadInto", ptr, collect(opts))
}

func (in *Inspector) loadInto(fn string, ptr any, o callOptions) error {
	s := in.site()
	name := o.name
	if name == "" {
		name = s.Arg(fn, 0)
	}
	_, err := in.store.Load(ptr, in.request(name, o))
	return err
}

// load reads into ptr from the file named after the variable receiving fn's result.
func (in *Inspector) load(fn string, ptr any, o callOptions) error {
	s := in.site()
	name := o.name
	if name == "" {
		name = s.Assignee(fn)
	}
	_, err := in.store.Load(ptr, in.request(name, o))
	return err
}

func (in *Inspector) request(name string, o callOptions) persist.Request {
	return persist.Request{
		Name:    name,
		Path:    o.path,
		Dir:     o.dir,
		Sort:    o.sort,
		Verbose: o.verbose,
	}
}

// LoadFrom is Load for a specific inspector.
func LoadFrom[T any](in *Inspector, opts ...Option) (T, error) {
	var v T
	err := in.load("LoadFrom", &v, collect(opts))
	return v, err
}
