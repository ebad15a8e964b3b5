package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"easyinfo/internal/config"
	"easyinfo/internal/persist"
)

func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	showKey, showMarkdown, showMaxDepth = "", false, 0
	convertKey, convertUnsorted = "", false
	resolveArg, resolveAssign = 0, false
	verbose = false
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestShowCmd(t *testing.T) {
	setup(t)
	dir := t.TempDir()

	grid := filepath.Join(dir, "grid.json")
	require.NoError(t, persist.SaveAs(grid, "", [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}}, false))
	words := filepath.Join(dir, "words.txt")
	require.NoError(t, persist.SaveAs(words, "", []string{"a", "b"}, false))

	cmd, out := newCmd()
	require.NoError(t, runShow(cmd, []string{grid, words}))

	got := out.String()
	assert.Contains(t, got, "== "+grid+" ==")
	assert.Contains(t, got, "grid shape: 3 x 4\n")
	assert.Contains(t, got, "words len: 2\n")
	assert.Contains(t, got, "words: [a b]\n")
	assert.Less(t, strings.Index(got, "grid"), strings.Index(got, "words"), "files print in argument order")
}

func TestShowCmd_Store(t *testing.T) {
	setup(t)
	db := filepath.Join(t.TempDir(), "vars.db")
	require.NoError(t, persist.SaveAs(db, "beta", []int{1, 2, 3}, false))
	require.NoError(t, persist.SaveAs(db, "alpha", "hi", false))

	cmd, out := newCmd()
	require.NoError(t, runShow(cmd, []string{db}))
	got := out.String()
	assert.Less(t, strings.Index(got, "alpha"), strings.Index(got, "beta"))
	assert.Contains(t, got, "beta shape: 3\n")

	showKey = "alpha"
	cmd, out = newCmd()
	require.NoError(t, runShow(cmd, []string{db}))
	assert.Contains(t, out.String(), "alpha: hi\n")
	assert.NotContains(t, out.String(), "beta")
}

func TestShowCmd_Markdown(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "scores.yaml")
	require.NoError(t, persist.SaveAs(path, "", map[string]int{"ann": 1}, false))

	showMarkdown = true
	cmd, out := newCmd()
	require.NoError(t, runShow(cmd, []string{path}))
	assert.Contains(t, out.String(), "scores")
	assert.Contains(t, out.String(), "len 1")
}

func TestShowCmd_Errors(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	bin := filepath.Join(dir, "v.gob")
	require.NoError(t, persist.SaveAs(bin, "", 1, false))

	cmd, _ := newCmd()
	assert.ErrorIs(t, runShow(cmd, []string{bin}), persist.ErrUntypedBinary)
	assert.Error(t, runShow(cmd, []string{filepath.Join(dir, "missing.json")}))
}

func TestConvertCmd(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "rows.json")
	require.NoError(t, persist.SaveAs(src, "", []map[string]any{{"id": 1, "name": "a"}}, false))

	dst := filepath.Join(dir, "rows.csv")
	cmd, out := newCmd()
	require.NoError(t, runConvert(cmd, []string{src, dst}))
	assert.Equal(t, "Converted "+src+" to "+dst+"\n", out.String())

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,a\n", string(data))

	assert.ErrorIs(t, runConvert(cmd, []string{src, filepath.Join(dir, "rows.xlsx")}), persist.ErrUnsupportedFormat)
}

func TestConvertCmd_IntoStore(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "scores.yaml")
	require.NoError(t, persist.SaveAs(src, "", map[string]int{"ann": 3}, false))

	db := filepath.Join(dir, "all.db")
	convertKey = "scores"
	cmd, _ := newCmd()
	require.NoError(t, runConvert(cmd, []string{src, db}))

	keys, err := persist.Keys(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"scores"}, keys)
}

func TestKeysCmd(t *testing.T) {
	setup(t)
	db := filepath.Join(t.TempDir(), "vars.db")
	require.NoError(t, persist.SaveAs(db, "scores", []int{1}, false))

	output := captureStdout(func() {
		require.NoError(t, runKeys(&cobra.Command{}, []string{db}))
	})
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "scores")
}

func TestResolveCmd(t *testing.T) {
	setup(t)
	file := filepath.Join(t.TempDir(), "main.go")
	src := "package main\n\nfunc main() {\n\teasyinfo.VPrint(total, easyinfo.Quiet())\n\tscores, err := easyinfo.Load[[]int]()\n\teasyinfo.VPrint(\n}\n"
	require.NoError(t, os.WriteFile(file, []byte(src), 0644))

	cmd, out := newCmd()
	require.NoError(t, runResolve(cmd, []string{file + ":4", "VPrint"}))
	assert.Equal(t, "total\n", out.String())

	resolveAssign = true
	cmd, out = newCmd()
	require.NoError(t, runResolve(cmd, []string{file + ":5", "Load"}))
	assert.Equal(t, "scores\n", out.String())

	resolveAssign = false
	cmd, out = newCmd()
	require.NoError(t, runResolve(cmd, []string{file + ":6", "VPrint"}))
	assert.Equal(t, "_\n", out.String())

	// Edits are picked up on the next run.
	require.NoError(t, os.WriteFile(file, []byte(strings.Replace(src, "total", "count", 1)), 0644))
	cmd, out = newCmd()
	require.NoError(t, runResolve(cmd, []string{file + ":4", "VPrint"}))
	assert.Equal(t, "count\n", out.String())

	assert.Error(t, runResolve(cmd, []string{file, "VPrint"}))
	assert.Error(t, runResolve(cmd, []string{file + ":x", "VPrint"}))
}

func TestConfigInit(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "easyinfo.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "config", "init", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configPath = ""
		configForce = false
	})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Wrote "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().MaxDepth, loaded.MaxDepth)

	// A second init refuses to overwrite.
	rootCmd.SetArgs([]string{"--config", path, "config", "init", path})
	assert.Error(t, rootCmd.Execute())
}

func TestConfigShow(t *testing.T) {
	setup(t)
	cfg.MaxDepth = 4
	cmd, out := newCmd()
	require.NoError(t, runConfigShow(cmd, nil))
	assert.Contains(t, out.String(), "max_depth: 4")
}

// syncBuffer is written by the watcher goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestValueWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)
	setup(t)
	dir := t.TempDir()

	var out syncBuffer
	w, err := newValueWatcher([]string{dir}, &out, 10, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, persist.SaveAs(filepath.Join(dir, "loss.json"), "", []float64{0.9, 0.5}, false))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "loss shape: 2")
	}, 5*time.Second, 10*time.Millisecond)

	w.Stop()
	assert.NotContains(t, out.String(), "notes")
	assert.NotContains(t, out.String(), ".tmp")
}

func TestValueWatcher_StopsOnContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	setup(t)

	w, err := newValueWatcher([]string{t.TempDir()}, io.Discard, 10, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()
	w.Stop()
}

func captureStdout(fn func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}
