package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/cmd/medqa/internal"
	"github.com/zero-day-ai/medqa/internal/config"
	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/pkg/version"
)

// cli carries the state shared by all commands of one invocation.
type cli struct {
	flags GlobalFlags
	cfg   *config.Config

	// connectGraph opens the graph connection. Tests replace it with a mock.
	connectGraph func(ctx context.Context, cfg graph.GraphClientConfig) (graph.GraphClient, error)
	stdin        io.Reader
}

func newCLI() *cli {
	return &cli{
		connectGraph: connectNeo4j,
		stdin:        os.Stdin,
	}
}

func connectNeo4j(ctx context.Context, cfg graph.GraphClientConfig) (graph.GraphClient, error) {
	client, err := graph.NewNeo4jClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Execute runs the root command with signal handling and returns the exit
// code.
func Execute(ctx context.Context) int {
	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newCLI().rootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return internal.HandleError(rootCmd, err)
	}
	return internal.ExitSuccess
}

func (c *cli) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medqa",
		Short: "medqa - medical knowledge-graph question answering",
		Long: `medqa answers Chinese medical questions from a Neo4j knowledge graph.

Questions are matched against a domain lexicon, classified into intents,
translated to Cypher and answered from the graph, with results cached in
memory and optionally in Redis.`,
		PersistentPreRunE: c.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	c.flags.Register(rootCmd)

	rootCmd.AddCommand(c.askCommand())
	rootCmd.AddCommand(c.classifyCommand())
	rootCmd.AddCommand(c.kgCommand())
	rootCmd.AddCommand(c.cacheCommand())
	rootCmd.AddCommand(c.healthCommand())
	rootCmd.AddCommand(c.versionCommand())
	return rootCmd
}

// loadConfig is called before any command runs to load configuration
func (c *cli) loadConfig(cmd *cobra.Command, args []string) error {
	if err := c.flags.Validate(); err != nil {
		return err
	}

	// version and help work without a configuration
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	// An explicit --config must exist; otherwise defaults and environment apply.
	var cfg *config.Config
	var err error
	if c.flags.ConfigFile != "" {
		cfg, err = config.NewConfigLoader(nil).Load(c.flags.ConfigFile)
	} else {
		cfg, err = config.LoadWithDefaults("")
	}
	if err != nil {
		return err
	}
	if level := c.flags.LogLevel(); level != "" {
		cfg.Logging.Level = level
	}
	c.cfg = cfg
	return nil
}

func (c *cli) printer(cmd *cobra.Command) *internal.Printer {
	return internal.NewPrinter(c.flags.Format(), cmd.OutOrStdout())
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printer(cmd).Result(version.Info(), func(w io.Writer) error {
				_, err := io.WriteString(w, version.String()+"\n")
				return err
			})
		},
	}
}
