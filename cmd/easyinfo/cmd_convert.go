package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"easyinfo/internal/persist"
)

var (
	convertKey      string
	convertUnsorted bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [src] [dst]",
	Short: "Convert a saved value to another format",
	Long: `Loads src and writes it to dst in the format named by dst's extension.

Supported: .txt .csv .tsv .json .yaml .yml .db .sqlite as sources, plus .gob as a
destination. --key names the entry when either side is a .db store.

Example:
  easyinfo convert scores.json scores.yaml
  easyinfo convert rows.json rows.csv
  easyinfo convert vars.db scores.json --key scores`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	if !persist.Supported(dst) {
		return fmt.Errorf("%w: %s", persist.ErrUnsupportedFormat, dst)
	}

	v, err := persist.LoadAny(src, convertKey)
	if err != nil {
		return err
	}
	if err := persist.SaveAs(dst, convertKey, v, !convertUnsorted); err != nil {
		return err
	}

	logger.Debug("converted", zap.String("src", src), zap.String("dst", dst))
	fmt.Fprintf(cmd.OutOrStdout(), "Converted %s to %s\n", src, dst)
	return nil
}
