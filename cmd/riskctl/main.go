// riskctl is the operator CLI for the risk evaluation engine. It talks
// directly to the backing stores, so it runs inside the platform network.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agrovia/riskengine/internal/config"
	domainservice "github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/internal/domain/strategy"
	"github.com/agrovia/riskengine/internal/infrastructure/monitoring"
	"github.com/agrovia/riskengine/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/agrovia/riskengine/internal/infrastructure/persistence/redis"
	"github.com/agrovia/riskengine/pkg/errors"
)

var rootCmd = &cobra.Command{
	Use:   "riskctl",
	Short: "Operator CLI for the risk evaluation engine",
	Long: `riskctl performs administrative tasks against the risk engine's
backing stores: seeding the built-in risk catalog, listing registered
definitions and inspecting the catalog version.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCatalogService wires a catalog service from the configured stores.
func newCatalogService(ctx context.Context) (*domainservice.CatalogService, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := monitoring.NewZapLogger(&config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDBConnection(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := postgres.Migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redisinfra.NewRedisClient(ctx, &cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	definitionRepo := postgres.NewRiskDefinitionRepository(db, log)
	versionStore := redisinfra.NewCatalogVersionStore(redisClient)
	return domainservice.NewCatalogService(definitionRepo, strategy.NewDefaultRegistry(), versionStore, log), nil
}

func init() {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the risk catalog",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Register the built-in risk definitions",
		Long: `Registers the standard agronomic risk definitions. Codes that are
already registered are skipped, so seeding is idempotent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := newCatalogService(ctx)
			if err != nil {
				return err
			}

			for _, def := range builtinDefinitions() {
				if _, err := catalog.Register(ctx, def); err != nil {
					if errors.IsDuplicateCode(err) {
						fmt.Printf("skipped %s (already registered)\n", def.Code)
						continue
					}
					return fmt.Errorf("register %s: %w", def.Code, err)
				}
				fmt.Printf("registered %s\n", def.Code)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active risk definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := newCatalogService(ctx)
			if err != nil {
				return err
			}

			defs, err := catalog.ListActive(ctx, listFilter(cmd))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tDOMAIN\tTARGET\tMODE\tMODEL")
			for _, d := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Code, d.Name, d.Domain, d.TargetEntityType, d.EvaluationMode, d.ModelType)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().String("domain", "", "filter by risk domain")
	listCmd.Flags().String("mode", "", "filter by evaluation mode")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the catalog version stamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := newCatalogService(ctx)
			if err != nil {
				return err
			}

			version, err := catalog.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("catalog version: %d\n", version)
			return nil
		},
	}

	catalogCmd.AddCommand(seedCmd, listCmd, versionCmd)
	rootCmd.AddCommand(catalogCmd)
}
