package persist

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"easyinfo/internal/logging"
)

type writeOptions struct {
	sort bool
}

// codec reads and writes one file format. name is the value's key and only
// matters to formats that hold several values.
type codec interface {
	write(path, name string, v any, o writeOptions) error
	read(path, name string, ptr any) error
	readAny(path, name string) (any, error)
}

// fileCodec adapts a stream encoder/decoder pair to whole files.
type fileCodec struct {
	encode  func(w io.Writer, v any, o writeOptions) error
	decode  func(r io.Reader, ptr any) error
	untyped func(r io.Reader) (any, error) // nil when the format needs a typed target
}

func (c fileCodec) write(path, _ string, v any, o writeOptions) error {
	return writeAtomic(path, func(w io.Writer) error {
		return c.encode(w, v, o)
	})
}

func (c fileCodec) read(path, _ string, ptr any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.decode(f, ptr)
}

func (c fileCodec) readAny(path, _ string) (any, error) {
	if c.untyped == nil {
		return nil, fmt.Errorf("%w: %s", ErrUntypedBinary, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.untyped(f)
}

var codecs = map[string]codec{
	".gob": fileCodec{
		encode: func(w io.Writer, v any, _ writeOptions) error { return gob.NewEncoder(w).Encode(v) },
		decode: func(r io.Reader, ptr any) error { return gob.NewDecoder(r).Decode(ptr) },
	},
	".json": fileCodec{
		encode: func(w io.Writer, v any, _ writeOptions) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
		decode: func(r io.Reader, ptr any) error { return json.NewDecoder(r).Decode(ptr) },
		untyped: func(r io.Reader) (any, error) {
			var v any
			err := json.NewDecoder(r).Decode(&v)
			return v, err
		},
	},
	".yaml": yamlCodec,
	".yml":  yamlCodec,
	".txt": fileCodec{
		encode:  encodeText,
		decode:  decodeText,
		untyped: func(r io.Reader) (any, error) { return readLines(r) },
	},
	".csv":    tableCodec(','),
	".tsv":    tableCodec('\t'),
	".db":     kvCodec{},
	".sqlite": kvCodec{},
}

var yamlCodec = fileCodec{
	encode: func(w io.Writer, v any, _ writeOptions) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	},
	decode: func(r io.Reader, ptr any) error { return yaml.NewDecoder(r).Decode(ptr) },
	untyped: func(r io.Reader) (any, error) {
		var v any
		err := yaml.NewDecoder(r).Decode(&v)
		return v, err
	},
}

func codecFor(path string) (codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return c, nil
}

// Formats lists the extensions with a codec.
func Formats() []string {
	return []string{".gob", ".txt", ".csv", ".tsv", ".json", ".yaml", ".yml", ".db", ".sqlite"}
}

// writeAtomic writes through a uniquely named temp file in the target directory
// and renames it into place, creating the directory first.
func writeAtomic(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		removeTemp(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		removeTemp(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		removeTemp(tmp)
		return err
	}
	return nil
}

func removeTemp(tmp string) {
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		logging.PersistWarn("failed to remove %s: %v", tmp, err)
	}
}
