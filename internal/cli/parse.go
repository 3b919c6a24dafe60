package cli

import (
	"fmt"

	"resumelift/internal/common"
	"resumelift/internal/gateway"
	"resumelift/internal/workflow"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [resume-file]",
	Short: "Parse a resume file into a structured document",
	Long: `Parse a resume file (.pdf or .docx) into the structured resume
document used by the analyze, optimize, and export commands. The parsed
document is written as JSON by default; use --format for text or markdown.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Parsed documents default to JSON; analyze and optimize consume them
		if parseConfig.OutputFormat == "" {
			parseConfig.OutputFormat = "json"
		}
		return common.ValidateOutputFormat(parseConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runParse,
}

var parseConfig common.CommandConfig

func init() {
	parseCmd.Flags().StringVarP(&parseConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().StringVar(&parseConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = parseCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fileProcessor := common.NewFileProcessor(logger)
	outputHandler := common.NewOutputHandler(logger)

	// Resume files are binary; read raw bytes, not text
	content, err := fileProcessor.ReadFileBytes(args[0])
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

	logger.Info("Parsing resume",
		"file", args[0],
		"size_bytes", len(content),
		"output_format", parseConfig.OutputFormat)

	workbench := workflow.NewWorkbench(cfg, client, logger, nil)
	doc, err := workbench.UploadResume(cmd.Context(), args[0], content)
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}

	if err := outputHandler.HandleOutput(doc, parseConfig); err != nil {
		return err
	}
	logger.Info("Resume parsed successfully", "name", doc.Name)
	return nil
}
