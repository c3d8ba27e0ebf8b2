package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sitesState string

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List states and their study sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAssets(context.Background(), false)
		if err != nil {
			return err
		}
		keys := a.store.GeoKeys()
		if sitesState != "" {
			if !a.store.HasGeo(sitesState) {
				fmt.Printf("(no study sites for %s)\n", sitesState)
				return nil
			}
			keys = []string{sitesState}
		} else {
			// Records without a state (the national sample) come first.
			var national []string
			for _, r := range a.store.Records() {
				if r.Geo == "" {
					national = append(national, r.Entity)
				}
			}
			if len(national) > 0 {
				fmt.Printf("(national) (%d)\n", len(national))
				for _, e := range national {
					fmt.Printf("  - %s\n", e)
				}
			}
		}
		if len(keys) == 0 {
			fmt.Println("(no states)")
			return nil
		}
		for _, k := range keys {
			ents := a.store.Entities(k)
			fmt.Printf("%s (%d)\n", k, len(ents))
			for _, e := range ents {
				fmt.Printf("  - %s\n", e)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.Flags().StringVarP(&sitesState, "state", "s", "", "only list sites of this state")
}
