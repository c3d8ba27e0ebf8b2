package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
)

var catInitForce bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "View or write the metric catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective metric catalog as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		b, err := c.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	},
}

var catalogInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the built-in catalog to a YAML file for editing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "catalog.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !catInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := catalog.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote catalog to %s\n", path)
		fmt.Printf("  Set catalog_path to use it: nfact config set catalog_path %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogInitCmd)
	catalogInitCmd.Flags().BoolVar(&catInitForce, "force", false, "overwrite an existing file")
}
