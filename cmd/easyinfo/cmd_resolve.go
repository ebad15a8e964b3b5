package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"easyinfo/internal/callsite"
	"easyinfo/internal/describe"
)

var (
	resolveArg    int
	resolveAssign bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [file:line] [func]",
	Short: "Show the name a helper call on a source line resolves to",
	Long: `Reads file:line the way the helpers read their caller's line and prints the
name they would report for func. Use it to check lines that print "_" or the
wrong name.

Example:
  easyinfo resolve main.go:42 VPrint
  easyinfo resolve main.go:57 Load --assign`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	file, line, err := parseLocation(args[0])
	if err != nil {
		return err
	}
	fn := args[1]

	// The file may have changed since this process last read it.
	callsite.Forget(file)
	site, err := callsite.SiteAt(file, line)
	if err != nil {
		return err
	}

	var name string
	if resolveAssign {
		name = site.Assignee(fn)
	} else {
		name = site.Arg(fn, resolveArg)
	}
	if name == "" {
		name = describe.Blank
	}

	out := cmd.OutOrStdout()
	if verbose {
		fmt.Fprintf(out, "%s:%d: %s\n", file, line, strings.TrimSpace(site.Text))
		if site.Receiver != "" {
			fmt.Fprintf(out, "receiver: %s\n", site.Receiver)
		}
	}
	fmt.Fprintln(out, name)
	return nil
}

func parseLocation(loc string) (string, int, error) {
	i := strings.LastIndex(loc, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("expected file:line, got %q", loc)
	}
	line, err := strconv.Atoi(loc[i+1:])
	if err != nil || line < 1 {
		return "", 0, fmt.Errorf("invalid line in %q", loc)
	}
	file, err := filepath.Abs(loc[:i])
	if err != nil {
		return "", 0, err
	}
	return file, line, nil
}
