package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexandrughinea/llm-api/internal/config"
	"github.com/alexandrughinea/llm-api/internal/llm"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "llmapi",
		Short:         "Serve one language model over an HTTPS API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: json|console (overrides LOG_FORMAT)")

	root.AddCommand(newServeCmd(g), newVersionCmd(), newArchitecturesCmd())
	return root
}

func newServeCmd(g *globalFlags) *cobra.Command {
	o := serveOptions{envFile: ".env"}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the configured model and serve the HTTPS API",
		Example: "  llmapi serve\n" +
			"  llmapi serve --env-file /etc/llmapi/.env --config /etc/llmapi/config.yaml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			o.logLevel, o.logFormat = g.logLevel, g.logFormat
			return serve(ctx, o, deps{
				loadConfig: func() (*config.Config, error) { return config.Load(o.envFile, o.configFile) },
				runtime:    llm.DefaultRuntime(),
				out:        cmd.ErrOrStderr(),
			})
		},
	}
	cmd.Flags().StringVar(&o.envFile, "env-file", o.envFile, "Optional .env file read after the process environment")
	cmd.Flags().StringVar(&o.configFile, "config", "", "Optional yaml|json|toml file read after the .env file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and model runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "llmapi %s (runtime: %s)\n", version, llm.DefaultRuntime().Name())
			return err
		},
	}
}

func newArchitecturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "architectures",
		Aliases: []string{"archs"},
		Short:   "List accepted LLM_MODEL_ARCHITECTURE values",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, tag := range llm.ArchitectureTags() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), tag); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
