package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"resumelift/internal/common"
	"resumelift/internal/gateway"
	"resumelift/internal/resume"
	"resumelift/internal/session"
	"resumelift/internal/workflow"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-json-file] [job-description-file]",
	Short: "Optimize a resume section for a specific job description",
	Long: `Optimize one section of a structured resume (JSON produced by the
parse command) for a job description. By default the whole section is
rewritten; use --item to target a single entry of a list section. The
updated resume can be written back with --save.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if optimizeConfig.OutputFormat == "" {
			optimizeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(optimizeConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}
		section := resume.Section(optimizeSection)
		if !resume.Known(section) {
			return fmt.Errorf("unknown section %q", optimizeSection)
		}
		if !resume.Optimizable(section) {
			return fmt.Errorf("section %q cannot be optimized", optimizeSection)
		}
		return nil
	},
	RunE: runOptimize,
}

var (
	optimizeConfig  common.CommandConfig
	optimizeSection string
	optimizeItem    int
	optimizePrompt  string
	optimizeSave    string
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	optimizeCmd.Flags().StringVarP(&optimizeSection, "section", "s", "summary", "Resume section to optimize")
	optimizeCmd.Flags().IntVar(&optimizeItem, "item", -1, "Index of a single list item to optimize (default: whole section)")
	optimizeCmd.Flags().StringVar(&optimizePrompt, "prompt", "", "Additional instructions for the optimization")
	optimizeCmd.Flags().StringVar(&optimizeSave, "save", "", "Write the updated resume JSON to this file")

	// Add completion for format and section flags
	_ = optimizeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = optimizeCmd.RegisterFlagCompletionFunc("section", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, section := range resume.Sections() {
			if resume.Optimizable(section) {
				names = append(names, string(section))
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

func runOptimize(cmd *cobra.Command, args []string) error {
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
		logger.Info("Starting section optimization",
			"section", optimizeSection,
			"item", optimizeItem,
			"resume_chars", len(input.ResumeJSON),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	optimizeOperation := func(ctx context.Context, input analyzeInput) (*session.Result, error) {
		workbench := workflow.NewWorkbench(cfg, client, logger, nil)
		if err := workbench.LoadDocumentJSON([]byte(input.ResumeJSON)); err != nil {
			return nil, err
		}
		if err := workbench.SetJobDescription(input.JobDescription); err != nil {
			return nil, err
		}

		target := resume.WholeSection()
		if optimizeItem >= 0 {
			target = resume.ItemAt(optimizeItem)
		}
		if err := workbench.OpenOptimize(resume.Section(optimizeSection), target); err != nil {
			return nil, err
		}

		result, err := workbench.RunOptimize(ctx, optimizePrompt)
		if err != nil {
			return nil, err
		}
		workbench.CloseOptimize()

		if optimizeSave != "" {
			doc, err := workbench.Document()
			if err != nil {
				return nil, err
			}
			updated, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to encode updated resume: %w", err)
			}
			fileProcessor := common.NewFileProcessor(logger)
			if err := fileProcessor.WriteFile(optimizeSave, string(updated)+"\n"); err != nil {
				return nil, err
			}
			logger.Info("Updated resume written", "file", optimizeSave)
		}

		return result, nil
	}

	err = common.RunGatewayCommand(
		cmd.Context(),
		logger,
		optimizeConfig,
		args,
		createInput,
		optimizeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to optimize section: %w", err)
	}
	logger.Info("Section optimization completed successfully")
	return nil
}
