package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	// Packages
	kong "github.com/alecthomas/kong"
	client "github.com/mutablelogic/go-client"
	credential "github.com/mutablelogic/go-llmstream/pkg/credential"
	manager "github.com/mutablelogic/go-llmstream/pkg/manager"
	anthropic "github.com/mutablelogic/go-llmstream/pkg/provider/anthropic"
	bedrock "github.com/mutablelogic/go-llmstream/pkg/provider/bedrock"
	openai "github.com/mutablelogic/go-llmstream/pkg/provider/openai"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	// Debugging
	Debug   bool `name:"debug" help:"Enable debug output"`
	Verbose bool `name:"verbose" help:"Enable verbose output"`

	// Providers
	Anthropic `embed:"" help:"Anthropic configuration"`
	OpenAI    `embed:"" help:"OpenAI configuration"`
	Bedrock   `embed:"" help:"Bedrock configuration"`

	// Context
	ctx     context.Context
	manager *manager.Manager
}

type Anthropic struct {
	AnthropicKey string `env:"ANTHROPIC_API_KEY" help:"Anthropic API Key"`
}

type OpenAI struct {
	OpenAIKey string `env:"OPENAI_API_KEY" help:"OpenAI API Key"`
}

type Bedrock struct {
	BedrockRegion      string `env:"AWS_REGION" help:"Bedrock region"`
	BedrockCredentials string `help:"Path to a credentials file"`
}

type CLI struct {
	Globals

	// Commands
	Models  ListModelsCmd `cmd:"" help:"Return a list of models"`
	Model   GetModelCmd   `cmd:"" help:"Return details of one model"`
	Stream  StreamCmd     `cmd:"" help:"Stream a completion for a prompt"`
	Version VersionCmd    `cmd:"" help:"Print version information"`
}

////////////////////////////////////////////////////////////////////////////////
// MAIN

func main() {
	// Create a cli parser
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("Streaming LLM command line interface"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{},
	)

	// Create a context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	cli.Globals.ctx = ctx

	// Client options
	clientopts := []client.ClientOpt{}
	if cli.Debug || cli.Verbose {
		clientopts = append(clientopts, client.OptTrace(os.Stderr, cli.Verbose))
	}

	// Register the configured providers
	opts := []manager.Opt{}
	if cli.AnthropicKey != "" {
		client, err := anthropic.New(cli.AnthropicKey, clientopts...)
		cmd.FatalIfErrorf(err)
		opts = append(opts, manager.WithClient(client))
	}
	if cli.OpenAIKey != "" {
		client, err := openai.New(cli.OpenAIKey, clientopts...)
		cmd.FatalIfErrorf(err)
		opts = append(opts, manager.WithClient(client))
	}
	if cli.BedrockRegion != "" {
		client, err := bedrock.New(cli.BedrockRegion, bedrockResolver(&cli))
		cmd.FatalIfErrorf(err)
		opts = append(opts, manager.WithClient(client))
	}

	manager, err := manager.NewManager(opts...)
	cmd.FatalIfErrorf(err)
	cli.Globals.manager = manager

	// Run the command
	if err := cmd.Run(&cli.Globals); err != nil {
		cmd.FatalIfErrorf(err)
		return
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func execName() string {
	// The name of the executable
	name, err := os.Executable()
	if err != nil {
		panic(err)
	} else {
		return filepath.Base(name)
	}
}

func bedrockResolver(cli *CLI) credential.Chain {
	chain := credential.Chain{&credential.Env{}}
	if cli.BedrockCredentials != "" {
		chain = append(chain, &credential.File{Path: cli.BedrockCredentials})
	}
	return chain
}
