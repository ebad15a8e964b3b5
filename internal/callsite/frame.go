// Package callsite recovers what a caller wrote at the line that called into easyinfo.
//
// It walks the goroutine stack with runtime.Caller, reads the caller's source line
// from disk and scans it textually. The scan is a heuristic over one line of text,
// not a Go parser: multi-line call sites, string literals that contain parentheses
// or commas, and two calls to the same function on one line can mis-resolve.
package callsite

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	// ErrNoSuchFrame is returned when the requested depth exceeds the stack.
	ErrNoSuchFrame = errors.New("no such frame")

	// ErrNoSourceAvailable is returned when a frame's source line cannot be read,
	// e.g. the binary was built with -trimpath or moved away from its sources.
	ErrNoSourceAvailable = errors.New("no source available")
)

// Frame is one level of the active call chain.
type Frame struct {
	PC       uintptr
	File     string
	Line     int
	Function string
}

// FrameAt returns the frame skip levels above the function that called FrameAt.
// FrameAt(0) is that function itself, FrameAt(1) its caller, and so on.
func FrameAt(skip int) (Frame, error) {
	if skip < 0 {
		return Frame{}, fmt.Errorf("%w: negative depth %d", ErrNoSuchFrame, skip)
	}

	// Same walk as runtime.Caller, keeping the symbolic function name so that
	// inlined frames report the logical function rather than the physical one.
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+2, pcs) < 1 {
		return Frame{}, fmt.Errorf("%w: depth %d exceeds the stack", ErrNoSuchFrame, skip)
	}
	rf, _ := runtime.CallersFrames(pcs).Next()
	if rf.PC == 0 {
		return Frame{}, fmt.Errorf("%w: depth %d exceeds the stack", ErrNoSuchFrame, skip)
	}

	f := Frame{PC: rf.PC, File: rf.File, Line: rf.Line, Function: rf.Function}
	return f, nil
}

// Source returns the literal text of the line executing in f.
func (f Frame) Source() (string, error) {
	lines, err := sources.lines(f.File)
	if err != nil {
		return "", err
	}
	if f.Line < 1 || f.Line > len(lines) {
		return "", fmt.Errorf("%w: %s has no line %d", ErrNoSourceAvailable, f.File, f.Line)
	}
	return lines[f.Line-1], nil
}

// IsMethod reports whether the frame's function is a method. Closures inside a
// method count as the method.
func (f Frame) IsMethod() bool {
	name := f.Function
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "[...]", "")

	// pkg.F, pkg.F.func1, pkg.(*T).m, pkg.T.m.func2.1
	parts := strings.Split(name, ".")
	for len(parts) > 2 && isClosureSegment(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	return len(parts) >= 3
}

func isClosureSegment(s string) bool {
	s = strings.TrimPrefix(s, "func")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.Function, f.File, f.Line)
}
