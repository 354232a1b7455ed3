package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/rail-service/bridge_service/internal/infrastructure/config"
	"github.com/rail-service/bridge_service/internal/infrastructure/di"
	"github.com/rail-service/bridge_service/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bridgectl",
		Short: "Operate the bridge service cache and inspect quote economics",
		Long: `bridgectl runs maintenance tasks against the bridge service's response
cache and exposes the slippage and price impact rules from the command line.

Examples:
  bridgectl sweep
  bridgectl price-impact 0.0314
  bridgectl slippage --from-chain 1 --to-chain 1 --from-token 0xa0b8...
  bridgectl tokens popular --chain 1 --chain 10`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newSweepCmd(),
		newPriceImpactCmd(),
		newSlippageCmd(),
		newTokensCmd(),
		newAdminTokenCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, color.GreenString(format, args...))
}

// loadContainer builds the service dependencies from the regular configuration
func loadContainer(cmd *cobra.Command) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return di.NewContainer(cfg, logger.New(level, cfg.Environment))
}
