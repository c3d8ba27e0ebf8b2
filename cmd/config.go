package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/lukefredrickson/nfact-dashboard/internal/config"
	"github.com/lukefredrickson/nfact-dashboard/internal/derive"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set nfact configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		for _, k := range cfgpkg.Keys {
			fmt.Printf("%s: %s\n", k, configValue(cfg, k))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Reload so flag overrides of this run are not persisted.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "data_path":
		return c.DataPath
	case "boundaries_path":
		return c.BoundariesPath
	case "catalog_path":
		return c.CatalogPath
	case "sheet":
		return c.Sheet
	case "entity_column":
		return c.EntityColumn
	case "geo_column":
		return c.GeoColumn
	case "start_column":
		return c.StartColumn
	case "end_column":
		return c.EndColumn
	case "geo_property":
		return c.GeoProperty
	case "title":
		return c.Title
	case "map_metric":
		return c.MapMetric
	case "map_agg":
		return c.MapAgg
	case "compare_metrics":
		return strings.Join(c.CompareMetrics, ",")
	case "listen_addr":
		return c.ListenAddr
	case "session_ttl_min":
		return strconv.Itoa(c.SessionTTLMin)
	case "max_sessions":
		return strconv.Itoa(c.MaxSessions)
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec)
	case "s3_region":
		return c.S3Region
	case "s3_endpoint":
		return c.S3Endpoint
	case "s3_path_style":
		return strconv.FormatBool(c.S3PathStyle)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	}
	return ""
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "data_path":
		c.DataPath = val
	case "boundaries_path":
		c.BoundariesPath = val
	case "catalog_path":
		c.CatalogPath = val
	case "sheet":
		c.Sheet = val
	case "entity_column":
		c.EntityColumn = val
	case "geo_column":
		c.GeoColumn = val
	case "start_column":
		c.StartColumn = val
	case "end_column":
		c.EndColumn = val
	case "geo_property":
		c.GeoProperty = val
	case "title":
		c.Title = val
	case "map_metric":
		c.MapMetric = val
	case "map_agg":
		switch strings.ToLower(val) {
		case derive.AggMean, derive.AggMax, derive.AggSum:
			c.MapAgg = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid map_agg: %s (use mean|max|sum)", val)
		}
	case "compare_metrics":
		var ms []string
		for _, m := range strings.Split(val, ",") {
			if m = strings.TrimSpace(m); m != "" {
				ms = append(ms, m)
			}
		}
		c.CompareMetrics = ms
	case "listen_addr":
		c.ListenAddr = val
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi()
	case "max_sessions":
		c.MaxSessions, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "s3_region":
		c.S3Region = val
	case "s3_endpoint":
		c.S3Endpoint = val
	case "s3_path_style":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for s3_path_style: %v", val)
		}
		c.S3PathStyle = b
	case "log_level":
		switch lvl := strings.ToLower(val); lvl {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = lvl
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text|json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
