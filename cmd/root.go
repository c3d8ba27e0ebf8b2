package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
	cfgpkg "github.com/lukefredrickson/nfact-dashboard/internal/config"
	"github.com/lukefredrickson/nfact-dashboard/internal/dashboard"
	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/geo"
	"github.com/lukefredrickson/nfact-dashboard/internal/logger"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Asset flags (override config if set)
	flagData       string
	flagBoundaries string
	flagCatalog    string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "nfact",
	Short: "NFACT dashboard: food insecurity before and since COVID-19",
	Long: `nfact serves an interactive dashboard of food insecurity survey results by
state and study site, and renders the same views offline as JSON, tables or PNG charts.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.nfact/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "dataset path or URL: .csv, .tsv or .xlsx; http(s):// and s3:// supported (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagBoundaries, "boundaries", "", "GeoJSON boundaries path or URL; empty disables the map lookup (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "metric catalog YAML (overrides config)")
}

func loadConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so config commands still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data") {
		cfg.DataPath = flagData
	}
	if f.Changed("boundaries") {
		cfg.BoundariesPath = flagBoundaries
	}
	if f.Changed("catalog") {
		cfg.CatalogPath = flagCatalog
	}
	logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Debug: debug})
}

// assets are the read-only inputs shared by every command.
type assets struct {
	store   *dataset.Store
	bounds  *geo.Boundaries
	catalog *catalog.Catalog
}

// loadAssets reads the dataset and, when configured and wanted, the
// boundaries concurrently. Either failing aborts.
func loadAssets(ctx context.Context, withBoundaries bool) (*assets, error) {
	if cfg == nil {
		loadConfig()
	}
	var a assets
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	a.catalog = cat

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := dataset.Load(gctx, cfg.DatasetOptions())
		if err != nil {
			return err
		}
		a.store = s
		return nil
	})
	if withBoundaries && cfg.BoundariesPath != "" {
		g.Go(func() error {
			b, err := geo.Load(gctx, cfg.BoundariesPath, cfg.GeoProperty, cfg.SourceOptions())
			if err != nil {
				return err
			}
			a.bounds = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l := logger.L()
	l.Info("dataset_loaded", "path", a.store.Path(), "records", a.store.Len(), "geo_keys", len(a.store.GeoKeys()), "months", a.store.Months())
	if a.bounds != nil {
		l.Info("boundaries_loaded", "path", cfg.BoundariesPath, "features", a.bounds.Len())
	}
	return &a, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if cfg == nil || cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.CatalogPath)
}

// newEngine builds the render engine from the loaded assets and config.
func newEngine(a *assets, l *slog.Logger) (*dashboard.Engine, error) {
	return dashboard.NewEngine(dashboard.Assets{
		Store:      a.store,
		Boundaries: a.bounds,
		Catalog:    a.catalog,
	}, dashboard.Options{
		Title:          cfg.Title,
		MapMetric:      cfg.MapMetric,
		MapAgg:         cfg.MapAgg,
		CompareMetrics: cfg.CompareMetrics,
		SessionTTL:     cfg.SessionTTL(),
		MaxSessions:    cfg.MaxSessions,
		Logger:         l,
	})
}
