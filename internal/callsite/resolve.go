package callsite

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"easyinfo/internal/logging"
)

const ident = `[\p{L}_][\p{L}\p{N}_]*`

// receiverRe matches a method declaration with a named receiver.
var receiverRe = regexp.MustCompile(`^func\s*\(\s*(` + ident + `)\s+\*?` + ident)

// assigneeRes caches the per-function assignment patterns.
var assigneeRes sync.Map // fn -> *regexp.Regexp

// Site is the caller's view of one call: its frame, the text of the line that
// made the call and, inside a method, the receiver's name.
type Site struct {
	Frame    Frame
	Text     string
	Receiver string
}

// Lookup returns the call site skip levels above the function that called Lookup.
// When the source cannot be read the returned Site still carries the frame, and the
// error wraps ErrNoSourceAvailable.
func Lookup(skip int) (Site, error) {
	f, err := FrameAt(skip + 1)
	if err != nil {
		return Site{}, err
	}

	return siteFor(f, f.IsMethod())
}

// SiteAt reads line of file as a call site. Without a function name the
// enclosing declaration decides whether a receiver applies.
func SiteAt(file string, line int) (Site, error) {
	return siteFor(Frame{File: file, Line: line}, true)
}

func siteFor(f Frame, method bool) (Site, error) {
	site := Site{Frame: f}
	lines, err := sources.lines(f.File)
	if err != nil {
		return site, err
	}
	if f.Line < 1 || f.Line > len(lines) {
		return site, fmt.Errorf("%w: %s has no line %d", ErrNoSourceAvailable, f.File, f.Line)
	}

	site.Text = lines[f.Line-1]
	if method {
		site.Receiver = receiverAt(lines, f.Line-1)
	}
	return site, nil
}

// Arg returns the text of argument index passed to fn on this line, with a leading
// & and the enclosing method's receiver qualifier removed.
func (s Site) Arg(fn string, index int) string {
	return stripQualifier(ArgText(s.Text, fn, index), s.Receiver)
}

// Assignee returns the variable receiving fn's result on this line.
func (s Site) Assignee(fn string) string {
	return AssigneeText(s.Text, fn)
}

// ResolveName returns the name written at the call site skip levels above the
// caller of ResolveName: either argument argIndex of fn, or with byReceiver the
// variable that receives fn's result. An empty name with a nil error means the
// line was read but nothing could be isolated.
func ResolveName(skip int, fn string, argIndex int, byReceiver bool) (string, error) {
	site, err := Lookup(skip + 1)
	if err != nil {
		return "", err
	}

	var name string
	if byReceiver {
		name = site.Assignee(fn)
	} else {
		name = site.Arg(fn, argIndex)
	}
	logging.CallsiteDebug("%s:%d %s -> %q", site.Frame.File, site.Frame.Line, fn, name)
	return name, nil
}

// ArgText returns argument index of the first call to fn on line, trimmed.
// The argument list ends at the parenthesis matching the call's opening one; an
// unbalanced line (call continued below) falls back to the last ')' on the line and
// then to the end of the line.
func ArgText(line, fn string, index int) string {
	open := callOpen(line, fn)
	if open < 0 || index < 0 {
		return ""
	}

	end := matchingClose(line, open)
	if end < 0 {
		end = strings.LastIndex(line, ")")
		if end <= open {
			end = len(line)
		}
	}

	args := splitTopLevel(line[open+1 : end])
	if index >= len(args) {
		return ""
	}
	return strings.TrimSpace(args[index])
}

// AssigneeText returns the first identifier on the left of `= fn(` or `:= fn(`,
// allowing a package qualifier and type arguments on fn.
func AssigneeText(line, fn string) string {
	re := assigneeRe(fn)
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

func assigneeRe(fn string) *regexp.Regexp {
	if re, ok := assigneeRes.Load(fn); ok {
		return re.(*regexp.Regexp)
	}
	pattern := `(` + ident + `)(?:\s*,\s*` + ident + `)*\s*:?=\s*(?:` + ident + `\.)*` +
		regexp.QuoteMeta(fn) + `(?:\[.*?\])?\(`
	re := regexp.MustCompile(pattern)
	assigneeRes.Store(fn, re)
	return re
}

// callOpen returns the index of the '(' that opens the first call to fn on line,
// skipping occurrences that are part of a longer identifier.
func callOpen(line, fn string) int {
	if fn == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(line[from:], fn)
		if i < 0 {
			return -1
		}
		i += from
		from = i + len(fn)

		if i > 0 {
			r, _ := utf8.DecodeLastRuneInString(line[:i])
			if isIdentRune(r) {
				continue
			}
		}

		j := i + len(fn)
		if j < len(line) && line[j] == '[' {
			j = skipBrackets(line, j)
		}
		if j >= 0 && j < len(line) && line[j] == '(' {
			return j
		}
	}
}

// skipBrackets returns the index just past the ']' matching line[open], or -1.
func skipBrackets(line string, open int) int {
	depth := 0
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func matchingClose(line string, open int) int {
	depth := 0
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas that are not nested in (), [] or {}.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func stripQualifier(arg, receiver string) string {
	arg = strings.TrimPrefix(arg, "&")
	if receiver != "" && strings.HasPrefix(arg, receiver+".") {
		rest := arg[len(receiver)+1:]
		if rest != "" {
			return rest
		}
	}
	return arg
}

// receiverAt finds the declaration enclosing line idx and returns its receiver name.
// Only top-level declarations (column 0, as gofmt writes them) are considered.
func receiverAt(lines []string, idx int) string {
	for i := idx; i >= 0; i-- {
		l := lines[i]
		if !strings.HasPrefix(l, "func") {
			continue
		}
		if m := receiverRe.FindStringSubmatch(l); m != nil && m[1] != "_" {
			return m[1]
		}
		return ""
	}
	return ""
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
