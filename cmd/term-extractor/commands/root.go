package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "term-extractor",
	Short: "Bilingual terminology extraction from parallel PDF documents",
	Long: `term-extractor reads a Chinese PDF and its English counterpart, asks a
large language model to pair the professional terminology that appears in
both, and writes the pairs to a spreadsheet-friendly CSV glossary.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
