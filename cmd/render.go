package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukefredrickson/nfact-dashboard/internal/logger"
	"github.com/lukefredrickson/nfact-dashboard/internal/present"
	"github.com/lukefredrickson/nfact-dashboard/internal/utils"
)

var (
	renState  string
	renSite   string
	renFormat string
	renOutput string
	renChart  string
	renWidth  int
	renHeight int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one selection offline as JSON, a terminal table or a PNG chart",
	Long: `render applies the same selection steps as the dashboard: choose a state, then a
study site. Unknown states or sites fall back the way the dashboard does and a warning
is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(renFormat))
		switch format {
		case "json", "table", "png":
		default:
			return fmt.Errorf("unsupported --format: %s (use json|table|png)", renFormat)
		}
		if format == "png" && renOutput == "" {
			return fmt.Errorf("--output is required for --format png")
		}

		a, err := loadAssets(context.Background(), true)
		if err != nil {
			return err
		}
		e, err := newEngine(a, logger.L())
		if err != nil {
			return err
		}
		r, miss := e.RenderEntity(renState, renSite)
		if miss {
			fmt.Fprintf(os.Stderr, "⚠ Selection not found, showing %s\n", r.Dropdown.Value)
		}

		var buf bytes.Buffer
		switch format {
		case "json":
			b, err := utils.PrettyJSON(r)
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte('\n')
		case "table":
			if err := writeRenderTables(&buf, r); err != nil {
				return err
			}
		case "png":
			c, err := pickChart(r, renChart)
			if err != nil {
				return err
			}
			if err := present.RenderPNG(&buf, c, renWidth, renHeight); err != nil {
				return err
			}
		}

		if renOutput == "" {
			_, err := os.Stdout.Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(renOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote %s render of %s to %s\n", format, r.Dropdown.Value, renOutput)
		return nil
	},
}

func writeRenderTables(w io.Writer, r present.Render) error {
	fmt.Fprintf(w, "%s\n\n", r.Heading)
	for _, c := range r.Charts {
		if renChart != "" && c.ID != renChart {
			continue
		}
		if err := present.WriteChartTable(w, c); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	for _, t := range r.Tables {
		if err := present.WriteTable(w, t); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// pickChart returns the named chart, or the first one.
func pickChart(r present.Render, id string) (present.ChartDescriptor, error) {
	if id == "" {
		if len(r.Charts) == 0 {
			return present.ChartDescriptor{}, fmt.Errorf("selection %s has no charts", r.Dropdown.Value)
		}
		return r.Charts[0], nil
	}
	c, ok := r.FindChart(id)
	if !ok {
		ids := make([]string, 0, len(r.Charts))
		for _, c := range r.Charts {
			ids = append(ids, c.ID)
		}
		return present.ChartDescriptor{}, fmt.Errorf("unknown chart %q (available: %s)", id, strings.Join(ids, ", "))
	}
	return c, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renState, "state", "s", "", "state to select (empty or 'all' for every state)")
	renderCmd.Flags().StringVar(&renSite, "site", "", "study site to select within the state")
	renderCmd.Flags().StringVarP(&renFormat, "format", "f", "json", "output format: json|table|png")
	renderCmd.Flags().StringVarP(&renOutput, "output", "o", "", "write to this file instead of stdout")
	renderCmd.Flags().StringVar(&renChart, "chart", "", "chart id for png (default first chart) or to filter tables")
	renderCmd.Flags().IntVar(&renWidth, "width", 1024, "png width in pixels")
	renderCmd.Flags().IntVar(&renHeight, "height", 512, "png height in pixels")
}
