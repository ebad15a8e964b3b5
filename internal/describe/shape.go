package describe

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Shaper is implemented by array-like values with a fixed dimensional shape
// (matrices, tensors, images).
type Shaper interface {
	Shape() []int
}

// Lengther is implemented by values with a length but no positional access.
type Lengther interface {
	Len() int
}

// Indexer is implemented by custom sequences.
type Indexer interface {
	Len() int
	At(i int) any
}

// Sizer is implemented by values that only report a total size.
type Sizer interface {
	Size() int
}

// Labels reported by Measure.
const (
	LabelShape = "shape"
	LabelLen   = "len"
	LabelSize  = "size"
	LabelValue = "value"
)

// capability is what a value supports, worked out once per value.
type capability int

const (
	capNone     capability = iota
	capShape                // Shaper
	capSequence             // slice, array, Indexer
	capString               // string
	capMapping              // map
	capLength               // chan, Lengther
	capSize                 // Sizer
)

// item is a value together with its resolved capability.
type item struct {
	v   any
	rv  reflect.Value
	cap capability
}

func classify(v any) item {
	it := item{v: v}
	if v == nil {
		return it
	}
	switch v.(type) {
	case Shaper:
		it.cap = capShape
		return it
	case Indexer:
		it.cap = capSequence
		return it
	case string:
		it.cap = capString
		return it
	case Lengther:
		it.cap = capLength
		return it
	case Sizer:
		it.cap = capSize
		return it
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return it
		}
		rv = rv.Elem()
	}
	it.rv = rv
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		it.cap = capSequence
	case reflect.String:
		it.cap = capString
	case reflect.Map:
		it.cap = capMapping
	case reflect.Chan:
		it.cap = capLength
	}
	return it
}

func (it item) length() int {
	switch it.cap {
	case capShape:
		if s := it.v.(Shaper).Shape(); len(s) > 0 {
			return s[0]
		}
		return 0
	case capSequence:
		if ix, ok := it.v.(Indexer); ok {
			return ix.Len()
		}
		return it.rv.Len()
	case capString:
		if s, ok := it.v.(string); ok {
			return len(s)
		}
		return it.rv.Len()
	case capMapping:
		return it.rv.Len()
	case capLength:
		if l, ok := it.v.(Lengther); ok {
			return l.Len()
		}
		return it.rv.Len()
	case capSize:
		return it.v.(Sizer).Size()
	}
	return 0
}

// first returns the element at position 0 of a non-empty sequence.
func (it item) first() (item, bool) {
	if it.cap != capSequence || it.length() == 0 {
		return item{}, false
	}
	if ix, ok := it.v.(Indexer); ok {
		return classify(ix.At(0)), true
	}
	el := it.rv.Index(0)
	if !el.CanInterface() {
		return item{}, false
	}
	return classify(el.Interface()), true
}

// width is the secondary dimension used when the first element cannot be reached.
// Maps report 0.
func (it item) width() int {
	switch it.cap {
	case capShape:
		if s := it.v.(Shaper).Shape(); len(s) > 1 {
			return s[1]
		}
		return 0
	case capSequence:
		if el, ok := it.first(); ok {
			return el.length()
		}
	}
	return 0
}

// Measure computes the label and dimensional description of v.
//
// Array-like values report their shape. Other sized values report their length,
// descending through first elements of nested sequences ("3 x 4 x 2") until an
// element is a string, has length 1 or less, cannot be indexed, or maxDepth is
// reached. Values that only know a total size report it; anything else is
// described by its own value.
func Measure(v any, maxDepth int) (label, val string) {
	it := classify(v)

	switch it.cap {
	case capShape:
		return LabelShape, joinAxes(it.v.(Shaper).Shape())

	case capSequence, capString, capMapping, capLength:
		n := it.length()
		label, val = LabelLen, strconv.Itoa(n)

		inner, ok := it.first()
		if it.cap == capMapping || n == 0 || !ok || inner.cap == capString {
			return label, val
		}

		label = LabelShape
		var b strings.Builder
		b.WriteString(val)
		depth := 0
		for innerLen := inner.length(); innerLen > 1 && inner.cap != capString; innerLen = inner.length() {
			if inner.cap == capShape {
				for _, axis := range inner.v.(Shaper).Shape() {
					fmt.Fprintf(&b, " x %d", axis)
				}
				break
			}
			fmt.Fprintf(&b, " x %d", innerLen)
			depth++
			if depth >= maxDepth {
				break
			}
			next, ok := inner.first()
			if !ok {
				if w := inner.width(); w != 0 {
					fmt.Fprintf(&b, " x %d", w)
				}
				break
			}
			inner = next
		}
		return label, b.String()

	case capSize:
		return LabelSize, strconv.Itoa(it.length())
	}

	return LabelValue, fmt.Sprintf("%v", v)
}

func joinAxes(axes []int) string {
	parts := make([]string, len(axes))
	for i, a := range axes {
		parts[i] = strconv.Itoa(a)
	}
	return strings.Join(parts, " x ")
}
