package common

import (
	"context"
	"fmt"

	"resumelift/internal/errors"
)

// CreateInputFunc defines how to create the specific gateway input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// GatewayOperationFunc is a generic function signature for any gateway operation.
type GatewayOperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunGatewayCommand encapsulates the common logic for file-based CLI commands:
// validate and read the input files, build the operation input, call the
// gateway, and hand the result to the output formatter.
func RunGatewayCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	operation GatewayOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	// Pass the logger when creating helpers
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
