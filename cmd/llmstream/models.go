package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	// Packages
	manager "github.com/mutablelogic/go-llmstream/pkg/manager"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type ListModelsCmd struct {
	Provider string `help:"Only return models from a specific provider"`
	Offset   uint   `help:"Offset into the model listing"`
	Limit    *uint  `help:"Maximum number of models to return"`
}

type GetModelCmd struct {
	Model    string `arg:"" help:"Model name"`
	Provider string `help:"Only look up the model on a specific provider"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *ListModelsCmd) Run(globals *Globals) error {
	return run(globals, func(ctx context.Context, manager *manager.Manager) error {
		models, err := manager.ListModels(ctx, schema.ListModelsRequest{
			Provider: cmd.Provider,
			Offset:   cmd.Offset,
			Limit:    cmd.Limit,
		})
		if err != nil {
			return err
		}
		if err := write(models); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, listSummary(len(models.Body), int(models.Offset), int(models.Count)))
		return nil
	})
}

func (cmd *GetModelCmd) Run(globals *Globals) error {
	return run(globals, func(ctx context.Context, manager *manager.Manager) error {
		model, err := manager.GetModel(ctx, schema.GetModelRequest{
			Name:     cmd.Model,
			Provider: cmd.Provider,
		})
		if err != nil {
			return err
		}
		return write(model)
	})
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func run(globals *Globals, fn func(ctx context.Context, manager *manager.Manager) error) error {
	return fn(globals.ctx, globals.manager)
}

func write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func listSummary(length, offset, total int) string {
	if total == 0 {
		return "No models"
	}
	if offset == 0 && length >= total {
		return fmt.Sprintf("All %d models displayed", total)
	}
	return fmt.Sprintf("Displaying models %d-%d of %d", offset+1, offset+length, total)
}
