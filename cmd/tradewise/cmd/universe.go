package cmd

import (
	"fmt"
	"io"
	"os"

	"tradewise/internal/collector"

	"github.com/spf13/cobra"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Maintain universe stock lists",
}

var universeDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the old and new symbol columns of a universe CSV",
	Long: `Read a CSV with old_list and new_list columns and report the symbols
added to the new list and those dropped from the old one.

Example:
  tradewise universe diff --file data/v200.csv --out changes.txt`,
	Args: cobra.NoArgs,
	RunE: runUniverseDiff,
}

var (
	diffFile string
	diffOut  string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeDiffCmd)
	universeDiffCmd.Flags().StringVarP(&diffFile, "file", "f", "", "CSV file with old and new lists")
	universeDiffCmd.Flags().StringVarP(&diffOut, "out", "o", "", "write the report here instead of stdout")
	_ = universeDiffCmd.MarkFlagRequired("file")
}

func runUniverseDiff(cmd *cobra.Command, args []string) error {
	in, err := os.Open(diffFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", diffFile, err)
	}
	defer in.Close()

	d, err := collector.DiffUniverse(in)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if diffOut != "" {
		f, err := os.Create(diffOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", diffOut, err)
		}
		defer f.Close()
		w = f
	}
	return d.Write(w)
}
