// Package persist saves and loads values to files named after the variable that
// held them. The file format follows the extension: .gob, .txt, .csv, .tsv, .json,
// .yaml/.yml, or a .db/.sqlite key/value store.
package persist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"easyinfo/internal/logging"
)

var (
	// ErrNoName is returned when the target path needs a variable name and none
	// could be resolved at the call site.
	ErrNoName = errors.New("no name for value")

	// ErrUnsupportedFormat is returned for an extension with no codec.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUntypedBinary is returned by LoadAny for formats that need a typed target.
	ErrUntypedBinary = errors.New("format needs a typed target")
)

// DefaultExt is used when the target path does not name a format.
const DefaultExt = ".gob"

// slowIO is the save/load time above which the persist logger warns.
const slowIO = 500 * time.Millisecond

// Options configures a Store.
type Options struct {
	Dir        string    // initial directory; empty means the working directory
	DefaultExt string    // extension used when a target has none; DefaultExt if empty
	Sort       bool      // sort map entries in .txt output by value, descending
	Verbose    bool      // print "Saved/Loaded {name} ..." lines
	Out        io.Writer // destination of verbose lines; os.Stdout if nil
}

// Store resolves save/load targets and remembers the last directory it was given.
type Store struct {
	mu         sync.Mutex
	dir        string
	defaultExt string
	sort       bool
	verbose    bool
	out        io.Writer
}

// NewStore creates a store.
func NewStore(opts Options) *Store {
	ext := opts.DefaultExt
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Store{
		dir:        opts.Dir,
		defaultExt: strings.ToLower(ext),
		sort:       opts.Sort,
		verbose:    opts.Verbose,
		out:        out,
	}
}

// Dir returns the remembered directory.
func (s *Store) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// SetOutput redirects verbose lines.
func (s *Store) SetOutput(out io.Writer) {
	s.mu.Lock()
	s.out = out
	s.mu.Unlock()
}

// Request describes one save or load. Zero fields take the store's settings.
type Request struct {
	Name    string // resolved variable name, may be empty
	Path    string // as written by the caller: "", ".json", "out/", "out/x.csv"
	Dir     string // explicit directory; overrides the remembered one for this call
	Sort    *bool
	Verbose *bool
}

// Target works out the file for a request:
//
//   - no path: {dir}/{name}{default ext}
//   - a bare extension such as ".json": {dir}/{name}.json
//   - a path without an extension, ".", ".." or an existing directory is a
//     directory; it is remembered and the file is {path}/{name}{default ext}
//   - anything else is used as given
//
// dir is req.Dir when set, else the remembered directory.
func (s *Store) Target(req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target(req)
}

func (s *Store) target(req Request) (string, error) {
	dir := req.Dir
	if dir == "" {
		dir = s.dir
	}

	path := req.Path
	ext := filepath.Ext(path)
	switch {
	case path == "":
		if req.Name == "" {
			return "", ErrNoName
		}
		return filepath.Join(dir, req.Name+s.defaultExt), nil

	case isDir(path, ext):
		s.dir = path
		logging.PersistDebug("remembering directory %s", path)
		if req.Name == "" {
			return "", fmt.Errorf("%w in directory %s", ErrNoName, path)
		}
		return filepath.Join(path, req.Name+s.defaultExt), nil

	case ext == path:
		if req.Name == "" {
			return "", fmt.Errorf("%w for %s file", ErrNoName, path)
		}
		return filepath.Join(dir, req.Name+path), nil
	}

	if req.Dir != "" && !filepath.IsAbs(path) {
		return filepath.Join(req.Dir, path), nil
	}
	return path, nil
}

// isDir reports whether a request path names a directory rather than a file or a
// bare extension.
func isDir(path, ext string) bool {
	switch filepath.Base(path) {
	case ".", "..":
		return true
	}
	if ext == "" {
		return true
	}
	if ext == path {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Save writes v to the target of req and returns the path written.
func (s *Store) Save(v any, req Request) (string, error) {
	s.mu.Lock()
	path, err := s.target(req)
	sortOut, verbose, out := s.sort, s.verbose, s.out
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if req.Sort != nil {
		sortOut = *req.Sort
	}
	if req.Verbose != nil {
		verbose = *req.Verbose
	}

	c, err := codecFor(path)
	if err != nil {
		return "", err
	}

	log := logging.Get(logging.CategoryPersist).With("path", path, "name", req.Name)
	timer := logging.StartTimer(logging.CategoryPersist, "save "+path)
	defer timer.StopWithThreshold(slowIO)

	if err := c.write(path, req.Name, v, writeOptions{sort: sortOut}); err != nil {
		log.Error("save failed: %v", err)
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	logging.Persist("saved %s to %s", displayName(req.Name), path)
	if verbose {
		fmt.Fprintf(out, "Saved %s to %s\n", displayName(req.Name), path)
	}
	return path, nil
}

// Load reads the target of req into ptr, which must be a non-nil pointer.
func (s *Store) Load(ptr any, req Request) (string, error) {
	s.mu.Lock()
	path, err := s.target(req)
	verbose, out := s.verbose, s.out
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if req.Verbose != nil {
		verbose = *req.Verbose
	}

	c, err := codecFor(path)
	if err != nil {
		return "", err
	}
	timer := logging.StartTimer(logging.CategoryPersist, "load "+path)
	defer timer.StopWithThreshold(slowIO)

	if err := c.read(path, req.Name, ptr); err != nil {
		logging.Get(logging.CategoryPersist).With("path", path, "name", req.Name).Debug("load failed: %v", err)
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	if verbose {
		fmt.Fprintf(out, "Loaded %s from %s\n", displayName(req.Name), path)
	}
	return path, nil
}

// LoadAny reads a self-describing file without a typed target. For key/value
// stores name selects the entry. Binary .gob files fail with ErrUntypedBinary.
func LoadAny(path, name string) (any, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	v, err := c.readAny(path, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return v, nil
}

// SaveAs writes v to path using the codec for its extension. name is only used
// by key/value stores.
func SaveAs(path, name string, v any, sort bool) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	if err := c.write(path, name, v, writeOptions{sort: sort}); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Supported reports whether path has an extension with a codec.
func Supported(path string) bool {
	_, err := codecFor(path)
	return err == nil
}

func displayName(name string) string {
	if name == "" {
		return "_"
	}
	return name
}
