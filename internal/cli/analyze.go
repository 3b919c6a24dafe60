package cli

import (
	"context"
	"fmt"

	"resumelift/internal/common"
	"resumelift/internal/gateway"
	"resumelift/internal/types"
	"resumelift/internal/workflow"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-json-file] [job-description-file]",
	Short: "Run an ATS analysis of a resume against a job description",
	Long: `Analyze a structured resume (JSON produced by the parse command)
against a job description. The report scores keyword match, experience
relevance, education fit, and skills alignment, and lists insights and
actionable recommendations.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

// analyzeInput pairs the resume JSON with the job description text.
type analyzeInput struct {
	ResumeJSON     string
	JobDescription string
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	client, err := gateway.New(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close gateway client", "error", err)
		}
	}()

	createInput := func(contents []string) (analyzeInput, error) {
		if len(contents) != 2 {
			return analyzeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return analyzeInput{
			ResumeJSON:     contents[0],
			JobDescription: contents[1],
		}, nil
	}

	logDetails := func(input analyzeInput, cfg common.CommandConfig) {
		logger.Info("Starting ATS analysis",
			"resume_chars", len(input.ResumeJSON),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, input analyzeInput) (*types.ATSReport, error) {
		workbench := workflow.NewWorkbench(cfg, client, logger, nil)
		if err := workbench.LoadDocumentJSON([]byte(input.ResumeJSON)); err != nil {
			return nil, err
		}
		if err := workbench.SetJobDescription(input.JobDescription); err != nil {
			return nil, err
		}
		return workbench.Analyze(ctx)
	}

	err = common.RunGatewayCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("ATS analysis completed successfully")
	return nil
}
