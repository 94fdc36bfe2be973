package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	// Packages
	manager "github.com/mutablelogic/go-llmstream/pkg/manager"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type StreamCmd struct {
	Model       string   `arg:"" help:"Model name"`
	Prompt      []string `arg:"" help:"Prompt text"`
	Provider    string   `help:"Only look up the model on a specific provider"`
	System      string   `help:"System prompt"`
	MaxTokens   uint     `help:"Maximum number of tokens to generate"`
	Temperature *float64 `help:"Sampling temperature"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *StreamCmd) Run(globals *Globals) error {
	return run(globals, func(ctx context.Context, manager *manager.Manager) error {
		opts := []opt.Opt{}
		if cmd.MaxTokens > 0 {
			opts = append(opts, opt.WithMaxTokens(cmd.MaxTokens))
		}
		if cmd.Temperature != nil {
			opts = append(opts, opt.WithTemperature(*cmd.Temperature))
		}

		// Start the stream
		stream, err := manager.Stream(ctx, schema.GetModelRequest{
			Name:     cmd.Model,
			Provider: cmd.Provider,
		}, schema.NewContext(cmd.System, strings.Join(cmd.Prompt, " ")), opts...)
		if err != nil {
			return err
		}

		// Print deltas as they arrive
		for event := range stream.Events() {
			switch event.Type {
			case schema.EventTextDelta:
				fmt.Print(event.Delta)
			case schema.EventThinkingDelta:
				if globals.Verbose {
					fmt.Fprint(os.Stderr, event.Delta)
				}
			case schema.EventToolCallEnd:
				if event.Block != nil && event.Block.ToolCall != nil {
					fmt.Fprintf(os.Stderr, "\ntool call: %v\n", event.Block.ToolCall)
				}
			}
		}
		fmt.Println()

		// Report the final usage
		response, err := stream.Result(ctx)
		if err != nil {
			return err
		}
		if globals.Verbose {
			fmt.Fprintf(os.Stderr, "%d input tokens, %d output tokens, stop reason %q\n",
				response.Usage.InputTokens, response.Usage.OutputTokens, response.StopReason)
		}
		return nil
	})
}
