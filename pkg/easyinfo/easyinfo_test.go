package easyinfo_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"easyinfo/internal/config"
	"easyinfo/internal/logging"
	"easyinfo/internal/persist"
	"easyinfo/pkg/easyinfo"
)

// newInspector returns an inspector writing to a buffer and saving under a temp dir.
func newInspector(t *testing.T) (*easyinfo.Inspector, *bytes.Buffer) {
	t.Helper()
	cfg := easyinfo.DefaultConfig()
	cfg.Persist.SaveDir = t.TempDir()
	in := easyinfo.New(cfg)
	var out bytes.Buffer
	in.SetOutput(&out)
	return in, &out
}

func TestVStr_NamesTheArgument(t *testing.T) {
	in, _ := newInspector(t)
	total := 42
	line := in.VLine() + 1
	got := in.VStr(total)
	assert.Equal(t, "total (line "+strconv.Itoa(line)+") <int>: 42", got)
}

func TestVStr_PackageLevel(t *testing.T) {
	threshold := 0.5
	got := easyinfo.VStr(threshold, easyinfo.Quiet())
	assert.Equal(t, "threshold: 0.5", got)
}

func TestVStr_InsideOuterCall(t *testing.T) {
	x := []int{1, 2}
	got := fmt.Sprint(easyinfo.VStr(x, easyinfo.Quiet()))
	assert.Equal(t, "x: [1 2]", got)
}

func TestVStr_Expression(t *testing.T) {
	in, _ := newInspector(t)
	a, b := 2, 3
	assert.Equal(t, "a * b: 6", in.VStr(a * b, easyinfo.Quiet()))
}

func TestVStr_NameAndRepr(t *testing.T) {
	in, _ := newInspector(t)
	token := "s3cr3t"
	assert.Equal(t, "auth: ***", in.VStr(token, easyinfo.Name("auth"), easyinfo.Repr("***"), easyinfo.Quiet()))
}

type account struct {
	balance int
}

func (a *account) report(in *easyinfo.Inspector) string {
	return in.VStr(a.balance, easyinfo.Quiet())
}

func TestVStr_MethodReceiverStripped(t *testing.T) {
	in, _ := newInspector(t)
	acct := &account{balance: 10}
	assert.Equal(t, "balance: 10", acct.report(in))
}

func TestVPrint_WritesLine(t *testing.T) {
	in, out := newInspector(t)
	items := []string{"a"}
	in.VPrint(items, easyinfo.Quiet())
	assert.Equal(t, "items: [a]\n", out.String())
}

func TestEPrint(t *testing.T) {
	in, out := newInspector(t)
	var errOut bytes.Buffer
	in.SetErrOutput(&errOut)
	in.EPrint("failed", 3)
	assert.Equal(t, "failed 3\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestLStr_Shape(t *testing.T) {
	in, _ := newInspector(t)
	grid := [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}}
	got := in.LStr(grid)
	assert.True(t, strings.HasPrefix(got, "grid (line "), got)
	assert.True(t, strings.HasSuffix(got, "shape: 3 x 4"), got)

	flat := []int{1, 2, 3, 4, 5}
	assert.Equal(t, "flat shape: 5", in.LStr(flat, easyinfo.Quiet()))

	word := "hello"
	assert.Equal(t, "word len: 5", in.LStr(word, easyinfo.Quiet()))
}

func TestLPrint_MaxDepth(t *testing.T) {
	in, out := newInspector(t)
	cube := [2][3][4]int{}
	in.LPrint(cube, easyinfo.MaxDepth(1), easyinfo.Quiet())
	assert.Equal(t, "cube shape: 2 x 3\n", out.String())
}

func TestAStr(t *testing.T) {
	in, _ := newInspector(t)
	pair := []int{7, 8}
	got := in.AStr(pair, easyinfo.Quiet())
	assert.Equal(t, "pair shape: 2\n\t: [7 8]", got)
}

func TestAPrint(t *testing.T) {
	in, out := newInspector(t)
	pair := []int{7, 8}
	in.APrint(pair, easyinfo.Quiet())
	assert.Equal(t, "pair shape: 2\n\t: [7 8]\n", out.String())
}

func TestVName(t *testing.T) {
	in, _ := newInspector(t)
	userCount := 3
	assert.Equal(t, "userCount", in.VName(userCount))
	assert.Equal(t, "userCount", easyinfo.VName(userCount))
}

func TestVLine(t *testing.T) {
	first := easyinfo.VLine()
	second := easyinfo.VLine()
	assert.Equal(t, first+1, second)
	assert.Greater(t, first, 0)
}

func TestTimer(t *testing.T) {
	in, out := newInspector(t)

	in.Start()
	time.Sleep(2 * time.Millisecond)
	first := in.End()
	second := in.End("phase")

	assert.GreaterOrEqual(t, first, 2*time.Millisecond)
	assert.Less(t, second, first+time.Second)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Total time: "), lines[0])
	assert.NotContains(t, lines[0], "Time since last")
	assert.True(t, strings.HasPrefix(lines[1], "phase: "), lines[1])
	assert.Contains(t, lines[1], "Time since last: ")
}

func TestNamedTimer(t *testing.T) {
	in, out := newInspector(t)
	in.StartID("db")
	in.EndID("db")
	in.EndID("db", "db again")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "db: "))
	assert.True(t, strings.HasPrefix(lines[1], "db again: "))
}

func TestNotices_KeptWithShortLines(t *testing.T) {
	cfg := easyinfo.DefaultConfig()
	cfg.Verbose = false
	cfg.Persist.SaveDir = t.TempDir()
	in := easyinfo.New(cfg)
	var out bytes.Buffer
	in.SetOutput(&out)

	n := 1
	assert.Equal(t, "n: 1", in.VStr(n))

	in.Start()
	in.End()
	in.End("phase")
	path, err := in.Save(n)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3, out.String())
	assert.True(t, strings.HasPrefix(lines[0], "Total time: "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "phase: "), lines[1])
	assert.Equal(t, "Saved n to "+path, lines[2])
}

func TestNotices_Off(t *testing.T) {
	cfg := easyinfo.DefaultConfig()
	cfg.Notices = false
	cfg.Persist.SaveDir = t.TempDir()
	in := easyinfo.New(cfg)
	var out bytes.Buffer
	in.SetOutput(&out)

	level := 3
	in.Start()
	in.End()
	in.EndID("db")
	_, err := in.Save(level)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	in.EndWith("forced", easyinfo.Verbose(true))
	_, err = in.Save(level, easyinfo.Verbose(true))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "forced: ")
	assert.Contains(t, out.String(), "Saved level to ")
}

func TestEndWith_Quiet(t *testing.T) {
	in, out := newInspector(t)

	in.Start()
	in.EndWith("silent", easyinfo.Quiet())
	assert.Empty(t, out.String())

	// The quiet checkpoint still counts as the previous End.
	in.End("next")
	assert.Contains(t, out.String(), "next: ")
	assert.Contains(t, out.String(), "Time since last: ")

	out.Reset()
	in.StartID("db")
	in.EndIDWith("db", "", easyinfo.Quiet())
	assert.Empty(t, out.String())
	in.EndIDWith("db", "")
	assert.True(t, strings.HasPrefix(out.String(), "db: "), out.String())
	assert.Contains(t, out.String(), "Time since last: ")
}

func TestNew_InstallsDebugLogging(t *testing.T) {
	t.Cleanup(func() { logging.InitializeWith(zap.NewNop(), config.LoggingConfig{}) })
	logFile := filepath.Join(t.TempDir(), "debug.log")

	cfg := easyinfo.DefaultConfig()
	cfg.Logging = config.LoggingConfig{DebugMode: true, Level: "debug", Format: "json", File: logFile}
	in := easyinfo.New(cfg)
	in.SetOutput(io.Discard)
	assert.True(t, logging.IsDebugMode())

	x := 5
	in.VPrint(x)
	logging.CloseAll()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"describe"`)
}

func TestNew_DefaultLeavesLoggingAlone(t *testing.T) {
	t.Cleanup(func() { logging.InitializeWith(zap.NewNop(), config.LoggingConfig{}) })
	logging.InitializeWith(zap.NewNop(), config.LoggingConfig{DebugMode: true})

	easyinfo.New(nil)
	assert.True(t, logging.IsDebugMode())
}

func TestSaveAndLoad(t *testing.T) {
	in, out := newInspector(t)

	scores := map[string]int{"ann": 3, "bob": 5}
	path, err := in.Save(scores)
	require.NoError(t, err)
	assert.Equal(t, "scores.gob", filepath.Base(path))
	assert.Contains(t, out.String(), "Saved scores to "+path)

	{
		scores, err := easyinfo.LoadFrom[map[string]int](in)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"ann": 3, "bob": 5}, scores)
	}
	assert.Contains(t, out.String(), "Loaded scores from "+path)
}

func TestLoad_PackageLevel(t *testing.T) {
	prev := easyinfo.Default()
	t.Cleanup(func() { easyinfo.SetDefault(prev) })
	in, out := newInspector(t)
	easyinfo.SetDefault(in)

	counts := []int{1, 2}
	path, err := easyinfo.Save(counts, easyinfo.Quiet())
	require.NoError(t, err)
	assert.Equal(t, "counts.gob", filepath.Base(path))

	{
		counts, err := easyinfo.Load[[]int]()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, counts)
	}
	assert.Equal(t, "Loaded counts from "+path+"\n", out.String())

	{
		var counts []int
		require.NoError(t, easyinfo.LoadInto(&counts, easyinfo.Quiet()))
		assert.Equal(t, []int{1, 2}, counts)
	}
}

func TestSaveAndLoadInto_Text(t *testing.T) {
	in, _ := newInspector(t)

	names := []string{"ann  ", "bob"}
	_, err := in.Save(names, easyinfo.Path(".txt"), easyinfo.Quiet())
	require.NoError(t, err)

	names = nil
	require.NoError(t, in.LoadInto(&names, easyinfo.Path(".txt"), easyinfo.Quiet()))
	assert.Equal(t, []string{"ann", "bob"}, names)
}

func TestSave_ExplicitDirAndFile(t *testing.T) {
	in, _ := newInspector(t)
	dir := t.TempDir()

	rows := [][]string{{"a", "b"}}
	path, err := in.Save(rows, easyinfo.Dir(dir), easyinfo.Path("table.csv"), easyinfo.Quiet())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "table.csv"), path)
}

func TestLoad_Missing(t *testing.T) {
	in, _ := newInspector(t)
	nothing, err := easyinfo.LoadFrom[[]int](in, easyinfo.Quiet())
	assert.Nil(t, nothing)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "err=%v", err)
}

func TestSave_NoName(t *testing.T) {
	in, _ := newInspector(t)

	// The argument is on the next line, so there is nothing to name the file after.
	_, err := in.Save(
		42, easyinfo.Quiet())
	assert.ErrorIs(t, err, persist.ErrNoName)
}

func TestSetDefault(t *testing.T) {
	prev := easyinfo.Default()
	t.Cleanup(func() { easyinfo.SetDefault(prev) })

	in, out := newInspector(t)
	easyinfo.SetDefault(in)
	easyinfo.SetDefault(nil)

	depth := 2
	easyinfo.VPrint(depth, easyinfo.Quiet())
	assert.Equal(t, "depth: 2\n", out.String())
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"42", 42, true},
		{"abc42xyz", 42, true},
		{"-7 apples", -7, true},
		{"abc-12.5x", 0, false},
		{"", 0, false},
		{"none", 0, false},
		{"1-2", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := easyinfo.ToInt(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
