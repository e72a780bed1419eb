package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wilsonlichina/pdf-term-extractor/cmd/term-extractor/ui"
	"github.com/wilsonlichina/pdf-term-extractor/internal/config"
	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
	"github.com/wilsonlichina/pdf-term-extractor/pkg/extractor"
)

var (
	extractZHPath       string
	extractENPath       string
	extractModelID      string
	extractTemplateFile string
	extractOutputPath   string
	extractIDMode       string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract terminology pairs from a Chinese/English PDF pair",
	Long: `Extract reads both PDFs, sends their text to the configured model in a
single request, and writes the recognized terminology pairs to a CSV glossary.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractZHPath, "zh", "", "Path to the Chinese PDF (required)")
	extractCmd.Flags().StringVar(&extractENPath, "en", "", "Path to the English PDF (required)")
	extractCmd.Flags().StringVarP(&extractModelID, "model", "m", "", "Model identifier override")
	extractCmd.Flags().StringVar(&extractTemplateFile, "template-file", "", "Prompt template file override")
	extractCmd.Flags().StringVarP(&extractOutputPath, "output", "o", "", "Output CSV path (default: timestamped file in the output dir)")
	extractCmd.Flags().StringVar(&extractIDMode, "id-mode", "", "ID assignment mode: sequential or random_token")
	extractCmd.MarkFlagRequired("zh")
	extractCmd.MarkFlagRequired("en")
	rootCmd.AddCommand(extractCmd)
}

// stageLabels maps pipeline stages to their progress descriptions.
var stageLabels = map[domain.Stage]string{
	domain.StageAcquireChinese: "Reading Chinese PDF",
	domain.StageAcquireEnglish: "Reading English PDF",
	domain.StageBuildRequest:   "Building prompt",
	domain.StageInvokeModel:    "Waiting for model",
	domain.StageParseResponse:  "Parsing response",
	domain.StageRegisterTerms:  "Registering terms",
	domain.StageWriteOutput:    "Writing glossary",
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	_ = godotenv.Load()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyExtractFlags(cfg)

	ui.InitUI(noColor, verbose)
	ui.Section("Terminology Extraction")

	client, err := extractor.NewClientWithConfig(cfg)
	if err != nil {
		return err
	}

	outputPath := extractOutputPath
	if outputPath == "" {
		outputPath = TimestampedOutputPath(cfg.Output.Dir, time.Now())
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return domain.OutputWriteError("create output directory", err)
		}
	}

	ui.Info("Chinese PDF: %s", extractZHPath)
	ui.Info("English PDF: %s", extractENPath)
	ui.Info("Model: %s", cfg.Model.ID)
	ui.Info("Output: %s", outputPath)
	ui.Newline()

	events, err := client.Process(ctx, extractor.Request{
		ChinesePDF: extractZHPath,
		EnglishPDF: extractENPath,
		OutputPath: outputPath,
	})
	if err != nil {
		return err
	}

	bar := ui.NewProgressBar(int64(len(stageLabels)), "Starting")
	var spin *ui.Spinner
	var result *extractor.RunResult
	var runErr error

	for event := range events {
		switch event.Type {
		case extractor.EventStageStart:
			bar.Describe(stageLabels[event.Stage])
			if event.Stage == domain.StageInvokeModel {
				spin = ui.NewSpinner(stageLabels[event.Stage] + "...")
				spin.Start()
			}
		case extractor.EventStageComplete:
			if event.Stage == domain.StageInvokeModel && spin != nil {
				spin.Stop()
				spin = nil
			}
			bar.Add(1)
			ui.Verbose("completed %s", event.Stage)
		case extractor.EventError:
			if spin != nil {
				spin.Stop()
				spin = nil
			}
			runErr = fmt.Errorf("%v", event.Payload)
		case extractor.EventRunComplete:
			if r, ok := event.Payload.(*extractor.RunResult); ok {
				result = r
			}
		}
	}
	bar.Finish()

	if runErr != nil {
		ui.Error("Extraction failed: %v", runErr)
		return runErr
	}
	if result == nil {
		return fmt.Errorf("extraction ended without a result")
	}

	ui.Newline()
	ui.Success("Extraction completed")
	ui.Newline()
	ui.Table([]string{"Metric", "Value"}, [][]string{
		{"Terms", fmt.Sprintf("%d", result.TermCount)},
		{"Duration", ui.FormatDuration(result.Duration)},
		{"Glossary", result.OutputPath},
	})

	return nil
}

// applyExtractFlags layers command-line overrides on top of the config.
func applyExtractFlags(cfg *config.Config) {
	if extractModelID != "" {
		cfg.Model.ID = extractModelID
	}
	if extractTemplateFile != "" {
		cfg.Pipeline.Template = ""
		cfg.Pipeline.TemplateFile = extractTemplateFile
	}
	if extractIDMode != "" {
		cfg.Output.IDMode = extractIDMode
	}
}

// TimestampedOutputPath names a glossary file the way the hosted tool did:
// terminology_YYYYMMDD_HHMMSS.csv under the output directory.
func TimestampedOutputPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("terminology_%s.csv", now.Format("20060102_150405")))
}
