package persist

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"sort"
)

func tableCodec(comma rune) fileCodec {
	return fileCodec{
		encode: func(w io.Writer, v any, _ writeOptions) error { return encodeTable(w, comma, v) },
		decode: func(r io.Reader, ptr any) error { return decodeTable(r, comma, ptr) },
		untyped: func(r io.Reader) (any, error) {
			return newTableReader(r, comma).ReadAll()
		},
	}
}

func newTableReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	if comma == '\t' {
		cr.LazyQuotes = true
	}
	return cr
}

// encodeTable writes one record per element of v. Elements may be slices (written
// as they are), maps (header from the sorted union of keys) or structs (header
// from exported field names).
func encodeTable(w io.Writer, comma rune, v any) error {
	rows := indirect(reflect.ValueOf(v))
	if rows.Kind() != reflect.Slice && rows.Kind() != reflect.Array {
		return fmt.Errorf("table: %T is not a sequence of rows", v)
	}

	cw := csv.NewWriter(w)
	cw.Comma = comma

	records, err := tableRecords(rows)
	if err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func tableRecords(rows reflect.Value) ([][]string, error) {
	if rows.Len() == 0 {
		return nil, nil
	}

	elem := rows.Type().Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	kind := elem.Kind()
	if kind == reflect.Interface {
		// Decoded JSON or YAML: go by the first row.
		if first := indirect(rows.Index(0)); first.IsValid() && first.Kind() == reflect.Map {
			kind = reflect.Map
		}
	}

	switch kind {
	case reflect.Map:
		header := mapHeader(rows)
		records := [][]string{header}
		for i := 0; i < rows.Len(); i++ {
			row := indirect(rows.Index(i))
			cells := make(map[string]string)
			if row.IsValid() {
				iter := row.MapRange()
				for iter.Next() {
					cells[fmt.Sprint(iter.Key().Interface())] = fmt.Sprint(iter.Value().Interface())
				}
			}
			rec := make([]string, len(header))
			for j, h := range header {
				rec[j] = cells[h]
			}
			records = append(records, rec)
		}
		return records, nil

	case reflect.Struct:
		fields := exportedFields(elem)
		header := make([]string, len(fields))
		for j, f := range fields {
			header[j] = f.Name
		}
		records := [][]string{header}
		for i := 0; i < rows.Len(); i++ {
			row := indirect(rows.Index(i))
			rec := make([]string, len(fields))
			if row.IsValid() {
				for j, f := range fields {
					rec[j] = fmt.Sprint(row.FieldByIndex(f.Index).Interface())
				}
			}
			records = append(records, rec)
		}
		return records, nil
	}

	records := make([][]string, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		row := indirect(rows.Index(i))
		switch row.Kind() {
		case reflect.Slice, reflect.Array:
			rec := make([]string, row.Len())
			for j := range rec {
				rec[j] = fmt.Sprint(row.Index(j).Interface())
			}
			records = append(records, rec)
		case reflect.Invalid:
			records = append(records, []string{})
		default:
			records = append(records, []string{fmt.Sprint(row.Interface())})
		}
	}
	return records, nil
}

func mapHeader(rows reflect.Value) []string {
	seen := make(map[string]bool)
	var header []string
	for i := 0; i < rows.Len(); i++ {
		row := indirect(rows.Index(i))
		if !row.IsValid() {
			continue
		}
		for _, k := range row.MapKeys() {
			name := fmt.Sprint(k.Interface())
			if !seen[name] {
				seen[name] = true
				header = append(header, name)
			}
		}
	}
	sort.Strings(header)
	return header
}

func exportedFields(t reflect.Type) []reflect.StructField {
	var fields []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if f.IsExported() && !f.Anonymous && len(f.Index) == 1 {
			fields = append(fields, f)
		}
	}
	return fields
}

// decodeTable loads records into *[][]string, *[]map[string]string or a pointer to
// a slice of structs whose exported field names match the header.
func decodeTable(r io.Reader, comma rune, ptr any) error {
	records, err := newTableReader(r, comma).ReadAll()
	if err != nil {
		return err
	}

	switch dst := ptr.(type) {
	case *[][]string:
		*dst = records
		return nil
	case *[]map[string]string:
		*dst = recordMaps(records)
		return nil
	}

	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice ||
		rv.Elem().Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("table: cannot load into %T", ptr)
	}
	return decodeStructs(records, rv.Elem())
}

func recordMaps(records [][]string) []map[string]string {
	if len(records) == 0 {
		return []map[string]string{}
	}
	header := records[0]
	out := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		m := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				m[h] = rec[j]
			}
		}
		out = append(out, m)
	}
	return out
}

func decodeStructs(records [][]string, dst reflect.Value) error {
	elem := dst.Type().Elem()
	out := reflect.MakeSlice(dst.Type(), 0, len(records))
	if len(records) == 0 {
		dst.Set(out)
		return nil
	}

	byName := make(map[string]reflect.StructField)
	for _, f := range exportedFields(elem) {
		byName[f.Name] = f
	}

	header := records[0]
	for i, rec := range records[1:] {
		row := reflect.New(elem).Elem()
		for j, h := range header {
			f, ok := byName[h]
			if !ok || j >= len(rec) {
				continue
			}
			if err := setScalar(row.FieldByIndex(f.Index), rec[j]); err != nil {
				return fmt.Errorf("table row %d, column %s: %w", i+1, h, err)
			}
		}
		out = reflect.Append(out, row)
	}
	dst.Set(out)
	return nil
}
