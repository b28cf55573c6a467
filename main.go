package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"warehouse-mcp/agent"
	"warehouse-mcp/config"
	"warehouse-mcp/core"
	"warehouse-mcp/databricks"
	"warehouse-mcp/fabric"
	"warehouse-mcp/migrate"
	"warehouse-mcp/snowflake"
	"warehouse-mcp/sqlserver"
)

// Version is set during build using ldflags.
var Version = "dev"

type mcpServer interface {
	Start() error
	Close() error
}

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "warehouse-mcp",
		Short:         "MCP servers for Databricks, Snowflake, SQL Server and Microsoft Fabric",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file (default: config/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	setup := func() (*config.Config, *log.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		return cfg, core.NewLogger(level), nil
	}

	runServer := func(build func(ctx context.Context, cfg *config.Config, logger *log.Logger) (mcpServer, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			s, err := build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Start()
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "databricks",
		Short: "Serve the Databricks MCP server on stdio",
		RunE: runServer(func(ctx context.Context, cfg *config.Config, logger *log.Logger) (mcpServer, error) {
			return databricks.NewServer(ctx, cfg.Databricks, logger)
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "snowflake",
		Short: "Serve the Snowflake MCP server on stdio",
		RunE: runServer(func(ctx context.Context, cfg *config.Config, logger *log.Logger) (mcpServer, error) {
			return snowflake.NewServer(ctx, cfg.Snowflake, logger)
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "sqlserver",
		Short: "Serve the SQL Server MCP server on stdio",
		RunE: runServer(func(ctx context.Context, cfg *config.Config, logger *log.Logger) (mcpServer, error) {
			return sqlserver.NewServer(ctx, cfg.SQLServer, logger)
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "fabric",
		Short: "Serve the Microsoft Fabric MCP server on stdio",
		RunE: runServer(func(ctx context.Context, cfg *config.Config, logger *log.Logger) (mcpServer, error) {
			return fabric.NewServer(ctx, cfg.Fabric, logger)
		}),
	})

	root.AddCommand(migrateCommand(setup))
	root.AddCommand(chatCommand(setup, &configPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func migrateCommand(setup func() (*config.Config, *log.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate tables from SQL Server to Snowflake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.SQLServer.Validate(); err != nil {
				return err
			}
			if err := cfg.Snowflake.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()

			source, err := core.OpenDB(ctx, "sqlserver", cfg.SQLServer.DSN(), nil)
			if err != nil {
				return fmt.Errorf("connecting to source: %w", err)
			}
			defer source.Close()

			target, err := core.OpenDB(ctx, "snowflake", cfg.Snowflake.DSN(), nil)
			if err != nil {
				return fmt.Errorf("connecting to target: %w", err)
			}
			defer target.Close()

			engine := migrate.NewEngine(source, target, cfg.Migration, logger)
			report, err := engine.Run(ctx)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d tables failed", report.Failed, len(report.Tables))
			}
			return nil
		},
	}
}

func chatCommand(setup func() (*config.Config, *log.Logger, error), configPath *string) *cobra.Command {
	var serverName string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a warehouse through Azure OpenAI tool calling",
		Long:  "Spawns one of the MCP servers as a subprocess and drives it from an Azure OpenAI tool-calling loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			switch serverName {
			case "databricks", "snowflake", "sqlserver", "fabric":
			default:
				return fmt.Errorf("unknown server %q: use databricks, snowflake, sqlserver or fabric", serverName)
			}

			self, err := os.Executable()
			if err != nil {
				return err
			}
			childArgs := []string{serverName}
			if *configPath != "" {
				childArgs = append(childArgs, "--config", *configPath)
			}

			ctx := cmd.Context()
			mcpClient, err := agent.NewMCPClient(ctx, self, childArgs...)
			if err != nil {
				return err
			}
			defer mcpClient.Close()
			logger.Info("MCP server ready", "server", serverName, "tools", len(mcpClient.Tools()))

			chat, err := agent.NewChat(cfg.AzureOpenAI, mcpClient, logger)
			if err != nil {
				return err
			}
			return chat.RunREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&serverName, "server", "snowflake", "which MCP server to spawn: databricks, snowflake, sqlserver, fabric")
	return cmd
}
