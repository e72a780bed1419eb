package commands

import (
	"github.com/spf13/cobra"

	"github.com/wilsonlichina/pdf-term-extractor/cmd/term-extractor/ui"
	"github.com/wilsonlichina/pdf-term-extractor/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known model identifiers and their request families",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ui.InitUI(noColor, verbose)
	ui.Section("Known Models")

	rows := make([][]string, 0, len(llm.KnownModels))
	for _, m := range llm.KnownModels {
		rows = append(rows, []string{m.ID, string(m.Family)})
	}
	ui.Table([]string{"Model", "Family"}, rows)

	ui.Newline()
	ui.Info("Other identifiers work too; unrecognized ones use the completion family.")
	return nil
}
