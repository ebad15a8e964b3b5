package persist

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// encodeText writes sequences one item per line, maps as "key: value" lines and
// anything else as a single line.
func encodeText(w io.Writer, v any, o writeOptions) error {
	bw := bufio.NewWriter(w)
	rv := indirect(reflect.ValueOf(v))

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			fmt.Fprintln(bw, string(rv.Bytes()))
			break
		}
		for i := 0; i < rv.Len(); i++ {
			fmt.Fprintln(bw, rv.Index(i).Interface())
		}

	case reflect.Map:
		for _, e := range mapEntries(rv, o.sort) {
			fmt.Fprintf(bw, "%v: %v\n", e.key.Interface(), e.val.Interface())
		}

	case reflect.Invalid:
		fmt.Fprintln(bw, "<nil>")

	default:
		fmt.Fprintln(bw, rv.Interface())
	}
	return bw.Flush()
}

type entry struct {
	key, val reflect.Value
}

// mapEntries orders a map's entries by value, descending, when byValue is set and
// by key otherwise. Ties keep key order.
func mapEntries(rv reflect.Value, byValue bool) []entry {
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: iter.Key(), val: iter.Value()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].key, entries[j].key)
	})
	if byValue {
		sort.SliceStable(entries, func(i, j int) bool {
			return less(entries[j].val, entries[i].val)
		})
	}
	return entries
}

// less orders numbers numerically and everything else by its printed form.
func less(a, b reflect.Value) bool {
	a, b = indirect(a), indirect(b)
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa < fb
		}
	}
	return fmt.Sprint(valueOf(a)) < fmt.Sprint(valueOf(b))
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// readLines returns the lines of r without trailing whitespace. A final newline
// does not produce an empty last line, so "\n" is one empty line and an empty
// file is no lines.
func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []string{}, nil
	}
	text := strings.TrimSuffix(string(data), "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return lines, nil
}

// decodeText fills ptr from a text file. Slices take one element per line, maps
// take "key: value" lines, strings take the whole text and other scalars parse the
// trimmed text.
func decodeText(r io.Reader, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("txt: cannot load into %T", ptr)
	}
	lines, err := readLines(r)
	if err != nil {
		return err
	}
	dst := rv.Elem()

	switch dst.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(dst.Type(), len(lines), len(lines))
		for i, l := range lines {
			if err := setScalar(out.Index(i), l); err != nil {
				return fmt.Errorf("txt line %d: %w", i+1, err)
			}
		}
		dst.Set(out)

	case reflect.Map:
		out := reflect.MakeMapWithSize(dst.Type(), len(lines))
		for i, l := range lines {
			k, v, ok := strings.Cut(l, ":")
			if !ok {
				return fmt.Errorf("txt line %d: missing ':' in %q", i+1, l)
			}
			key := reflect.New(dst.Type().Key()).Elem()
			if err := setScalar(key, strings.TrimSpace(k)); err != nil {
				return fmt.Errorf("txt line %d: %w", i+1, err)
			}
			val := reflect.New(dst.Type().Elem()).Elem()
			if err := setScalar(val, strings.TrimSpace(v)); err != nil {
				return fmt.Errorf("txt line %d: %w", i+1, err)
			}
			out.SetMapIndex(key, val)
		}
		dst.Set(out)

	case reflect.String:
		dst.SetString(strings.Join(lines, "\n"))

	default:
		return setScalar(dst, strings.TrimSpace(strings.Join(lines, "\n")))
	}
	return nil
}

// setScalar parses s into v according to v's kind.
func setScalar(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Interface:
		if v.NumMethod() != 0 {
			return fmt.Errorf("cannot store text in %s", v.Type())
		}
		v.Set(reflect.ValueOf(s))
	default:
		return fmt.Errorf("cannot parse %q into %s", s, v.Type())
	}
	return nil
}
