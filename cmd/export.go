package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lukefredrickson/nfact-dashboard/internal/logger"
	"github.com/lukefredrickson/nfact-dashboard/internal/present"
	"github.com/lukefredrickson/nfact-dashboard/internal/utils"
)

const (
	exportChartWidth  = 1024
	exportChartHeight = 512
)

var (
	expState  string
	expCharts bool
	expQuiet  bool
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Render every study site to JSON files with progress output",
	Long: `export writes one <site>.json render per study site into <dir>. Existing files
are never overwritten: a numbered suffix (__2, __3, ...) is used instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := args[0]
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		a, err := loadAssets(context.Background(), true)
		if err != nil {
			return err
		}
		e, err := newEngine(a, logger.L())
		if err != nil {
			return err
		}

		sites := a.store.Entities(expState)
		if len(sites) == 0 {
			return fmt.Errorf("no study sites to export")
		}
		total := len(sites)
		for i, site := range sites {
			if !expQuiet {
				fmt.Printf("[%d/%d] Rendering %s...\n", i+1, total, site)
			}
			rec, _ := a.store.Lookup(site)
			r, miss := e.RenderEntity(rec.Geo, site)
			if miss {
				return fmt.Errorf("render %s: selection fell back to %s", site, r.Dropdown.Value)
			}
			b, err := utils.PrettyJSON(r)
			if err != nil {
				return err
			}
			base := utils.Slug(site, "site")
			out := utils.UniquePath(outDir, base, ".json")
			if want := filepath.Join(outDir, base+".json"); out != want && !expQuiet {
				fmt.Printf("⚠ Detected existing render, writing to %s to avoid overwrite.\n", filepath.Base(out))
			}
			if err := utils.SafeWriteFile(out, b); err != nil {
				return fmt.Errorf("write render: %w", err)
			}
			if expCharts {
				if err := exportCharts(outDir, base, r); err != nil {
					return err
				}
			}
		}
		if !expQuiet {
			fmt.Printf("✓ Exported %d study sites to %s\n", total, outDir)
		}
		return nil
	},
}

func exportCharts(dir, base string, r present.Render) error {
	for _, c := range r.Charts {
		var buf bytes.Buffer
		if err := present.RenderPNG(&buf, c, exportChartWidth, exportChartHeight); err != nil {
			return fmt.Errorf("render chart %s: %w", c.ID, err)
		}
		out := utils.UniquePath(dir, base+"__"+utils.Slug(c.ID, "chart"), ".png")
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expState, "state", "s", "", "only export sites of this state")
	exportCmd.Flags().BoolVar(&expCharts, "charts", false, "also write one PNG per chart")
	exportCmd.Flags().BoolVar(&expQuiet, "quiet", false, "suppress progress and non-essential output")
}
