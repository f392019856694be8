// Package main provides evolvectl, a command line client that drives the
// evolution workflow without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	"github.com/alchemorsel/evolver/internal/infrastructure/container"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
)

// Global flags
var (
	configPath string
	envFile    string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "evolvectl",
	Short: "Evolve recipes from the command line",
	Long: `evolvectl generates recipe variants and curates the saved notebook.

Examples:
  evolvectl generate "Feijoada" -i feijão -i linguiça --method PressureCooker --save
  evolvectl notebook list
  evolvectl image 7c4f...                 # attach an image to a saved recipe
  evolvectl safety 7c4f...                # attach safety tips`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFiles(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		if !verbose && os.Getenv("EVOLVER_APP_LOG_LEVEL") == "" {
			_ = os.Setenv("EVOLVER_APP_LOG_LEVEL", "error")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show service logs")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(notebookCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(safetyCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		cancel()
		os.Exit(1)
	}
}

// services is what a command needs from the container
type services struct {
	Evolution  inbound.EvolutionService
	Enrichment inbound.EnrichmentService
}

// withServices starts the core container, runs fn and stops it again
func withServices(ctx context.Context, fn func(services) error) error {
	var svc services
	app := fx.New(
		fx.NopLogger,
		fx.Supply(container.ConfigPath(configPath)),
		container.CoreModule,
		fx.Populate(&svc.Evolution, &svc.Enrichment),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	runErr := fn(svc)

	stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
