package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rxcompare/price-service/internal/types"
)

var (
	resolveGSN      int
	resolveZip      string
	resolveLat      float64
	resolveLng      float64
	resolveRadius   float64
	resolveQuantity int
	resolveOutput   string
	resolveFile     string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [drug-name]",
	Short: "Compare pharmacy prices for a drug",
	Long: `Resolve pharmacy prices for a drug by name or GSN near a postal code or a
coordinate. Offers are sorted by price, then distance. When the pricing
provider cannot answer, estimated prices are shown and a warning is printed.`,
	Example: `  rxprice resolve lipitor --zip 78701 --radius 10
  rxprice resolve --gsn 16784 --lat 30.40 --lng -97.75 --radius 50 --output json
  rxprice resolve "atorvastatin calcium" --zip 10001 --output xlsx --file prices.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().IntVar(&resolveGSN, "gsn", 0, "Generic sequence number (instead of a name)")
	resolveCmd.Flags().StringVar(&resolveZip, "zip", "", "Five-digit US postal code")
	resolveCmd.Flags().Float64Var(&resolveLat, "lat", 0, "Latitude")
	resolveCmd.Flags().Float64Var(&resolveLng, "lng", 0, "Longitude")
	resolveCmd.Flags().Float64Var(&resolveRadius, "radius", 25, "Search radius in miles")
	resolveCmd.Flags().IntVar(&resolveQuantity, "quantity", 0, "Quantity (0 lets the provider choose)")
	resolveCmd.Flags().StringVar(&resolveOutput, "output", "table", "Output format: table, json or xlsx")
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "Output file (required for xlsx)")
	resolveCmd.MarkFlagsMutuallyExclusive("zip", "lat")
	resolveCmd.MarkFlagsMutuallyExclusive("zip", "lng")
	resolveCmd.MarkFlagsRequiredTogether("lat", "lng")
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(resolveOutput)
	if err != nil {
		return err
	}
	if format == formatXLSX && resolveFile == "" {
		return fmt.Errorf("--file is required for xlsx output")
	}

	query := types.DrugQuery{GSN: resolveGSN, Quantity: resolveQuantity}
	if len(args) == 1 {
		query.Name = strings.TrimSpace(args[0])
	}
	loc := types.Location{
		Latitude:    resolveLat,
		Longitude:   resolveLng,
		PostalCode:  resolveZip,
		RadiusMiles: resolveRadius,
	}

	result, err := svc.Engine.Resolve(cmd.Context(), query, loc)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	if format == formatXLSX {
		if err := writeXLSX(result, resolveFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d offers to %s\n", len(result.Offers), resolveFile)
		return nil
	}

	out := cmd.OutOrStdout()
	if resolveFile != "" {
		f, err := os.Create(resolveFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if format == formatJSON {
		return writeJSON(out, result)
	}
	return writeTable(out, result)
}
