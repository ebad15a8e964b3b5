package callsite

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoCalledMe() (Frame, error) {
	return FrameAt(1)
}

func TestFrameAt_Self(t *testing.T) {
	f, err := FrameAt(0)
	require.NoError(t, err)

	assert.Contains(t, f.Function, "TestFrameAt_Self")
	assert.True(t, strings.HasSuffix(f.File, "frame_test.go"), "file=%s", f.File)

	src, err := f.Source()
	require.NoError(t, err)
	assert.Contains(t, src, "FrameAt(0)")
}

func TestFrameAt_Caller(t *testing.T) {
	f, err := whoCalledMe()
	require.NoError(t, err)
	assert.Contains(t, f.Function, "TestFrameAt_Caller")

	src, err := f.Source()
	require.NoError(t, err)
	assert.Contains(t, src, "whoCalledMe()")
}

func TestFrameAt_TooDeep(t *testing.T) {
	_, err := FrameAt(1 << 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSuchFrame))
}

func TestFrameAt_Negative(t *testing.T) {
	_, err := FrameAt(-1)
	assert.True(t, errors.Is(err, ErrNoSuchFrame))
}

func TestFrame_SourceUnavailable(t *testing.T) {
	tests := []Frame{
		{File: filepath.Join(t.TempDir(), "gone.go"), Line: 1},
		{File: "", Line: 1},
		{File: "<autogenerated>", Line: 1},
	}
	for _, f := range tests {
		_, err := f.Source()
		assert.True(t, errors.Is(err, ErrNoSourceAvailable), "file=%q err=%v", f.File, err)
	}
}

func TestFrame_SourceLineOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.go")
	require.NoError(t, os.WriteFile(path, []byte("package p\r\nvar x = 1\r\n"), 0644))

	line, err := Frame{File: path, Line: 2}.Source()
	require.NoError(t, err)
	assert.Equal(t, "var x = 1", line)

	_, err = Frame{File: path, Line: 40}.Source()
	assert.True(t, errors.Is(err, ErrNoSourceAvailable))
}

func TestForget_RereadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.go")
	require.NoError(t, os.WriteFile(path, []byte("VPrint(a)\n"), 0644))

	line, err := Frame{File: path, Line: 1}.Source()
	require.NoError(t, err)
	assert.Equal(t, "VPrint(a)", line)

	require.NoError(t, os.WriteFile(path, []byte("VPrint(b)\n"), 0644))
	line, _ = Frame{File: path, Line: 1}.Source()
	assert.Equal(t, "VPrint(a)", line, "cached until forgotten")

	Forget(path)
	line, err = Frame{File: path, Line: 1}.Source()
	require.NoError(t, err)
	assert.Equal(t, "VPrint(b)", line)
}

func TestFrame_IsMethod(t *testing.T) {
	tests := []struct {
		function string
		want     bool
	}{
		{"main.main", false},
		{"easyinfo/internal/callsite.TestFrame_IsMethod", false},
		{"easyinfo/internal/callsite.TestFrame_IsMethod.func1", false},
		{"example.com/app.init.0", false},
		{"example.com/app.(*Server).handle", true},
		{"example.com/app.Server.handle", true},
		{"example.com/app.(*Server).handle.func1.2", true},
		{"example.com/app.Stack[...].Push", true},
	}
	for _, tt := range tests {
		t.Run(tt.function, func(t *testing.T) {
			assert.Equal(t, tt.want, Frame{Function: tt.function}.IsMethod())
		})
	}
}
