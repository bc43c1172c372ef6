package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:     "search <prefix>",
	Short:   "List drug names starting with a prefix",
	Example: `  rxprice search lip`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := svc.Engine.SearchNames(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching drugs")
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var geocodeCmd = &cobra.Command{
	Use:     "geocode <zip>",
	Short:   "Resolve a US postal code to coordinates",
	Example: `  rxprice geocode 78701`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := svc.Geocoder.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f\t%.4f\t%s\n", args[0], c.Latitude, c.Longitude, c.Source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(geocodeCmd)
}
