package cli

import (
	"fmt"
	"slices"

	"resumelift/internal/common"
	"resumelift/internal/gateway"
	"resumelift/internal/workflow"

	"github.com/spf13/cobra"
)

var exportFormats = []string{"text", "pdf", "docx"}

var exportCmd = &cobra.Command{
	Use:   "export [resume-json-file]",
	Short: "Export a resume as a text, PDF, or DOCX document",
	Long: `Export a structured resume (JSON produced by the parse command) as
a finished document. Text export is rendered locally; PDF and DOCX are
generated by the configured backend. The output file defaults to the
document name with the matching extension.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(exportFormats, exportFormat) {
			return fmt.Errorf("unsupported export format '%s'. Supported formats: %v",
				exportFormat, exportFormats)
		}
		return nil
	},
	RunE: runExport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "text", "Export format: text, pdf, or docx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: derived from the resume name)")

	_ = exportCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return exportFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	contents, err := fileProcessor.ValidateAndReadFiles(args[0])
	if err != nil {
		return err
	}

	client, err := gateway.New(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close gateway client", "error", err)
		}
	}()

	workbench := workflow.NewWorkbench(cfg, client, logger, nil)
	if err := workbench.LoadDocumentJSON([]byte(contents[0])); err != nil {
		return err
	}

	logger.Info("Exporting resume", "format", exportFormat)

	var artifact *gateway.Artifact
	switch exportFormat {
	case "text":
		artifact, err = workbench.ExportText(cmd.Context())
	case "pdf":
		artifact, err = workbench.ExportPDF(cmd.Context())
	case "docx":
		artifact, err = workbench.ExportDOCX(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to export resume: %w", err)
	}

	outputFile := exportOutput
	if outputFile == "" {
		outputFile = artifact.Filename
	}
	if err := fileProcessor.WriteFileBytes(outputFile, artifact.Content); err != nil {
		return err
	}

	logger.Info("Resume exported successfully",
		"file", outputFile,
		"format", exportFormat,
		"size_bytes", len(artifact.Content))
	return nil
}
