package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"github.com/rxcompare/price-service/internal/types"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatXLSX  outputFormat = "xlsx"
)

const offersSheet = "Offers"

var offerColumns = []string{"Pharmacy", "Price", "Distance (mi)", "Address", "City", "State", "ZIP", "Phone", "Source"}

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use table, json or xlsx)", s)
	}
}

func writeJSON(w io.Writer, result *types.ResolutionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeTable(w io.Writer, result *types.ResolutionResult) error {
	if result.UsedMockData {
		fmt.Fprintln(w, "Estimated prices (live prices unavailable)")
	}
	if len(result.Offers) == 0 {
		fmt.Fprintln(w, "No offers found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(offerColumns[:4], "\t"))
	fmt.Fprintln(tw, strings.Repeat("-", 20)+"\t"+strings.Repeat("-", 8)+"\t"+strings.Repeat("-", 13)+"\t"+strings.Repeat("-", 30))
	for _, o := range result.Offers {
		fmt.Fprintf(tw, "%s\t$%.2f\t%.2f\t%s\n", o.PharmacyName, o.Price, o.DistanceMiles, formatAddress(o))
	}
	return tw.Flush()
}

func formatAddress(o types.PharmacyOffer) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.Address, o.City, strings.TrimSpace(o.State + " " + o.PostalCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// writeXLSX writes one row per offer into a single-sheet workbook.
func writeXLSX(result *types.ResolutionResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", offersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, col := range offerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(offersSheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, o := range result.Offers {
		row := []any{o.PharmacyName, o.Price, o.DistanceMiles, o.Address, o.City, o.State, o.PostalCode, o.Phone, string(o.DataSource)}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(offersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
