// Schema Generator
//
// Generates JSON Schema files from the API request and response types so
// clients can validate payloads without reading Go.
//
// Usage:
//
//	go run ./cmd/schema-gen [-out ./schemas]
//
// Output:
//
//	schemas/prices.json
//	schemas/drugs.json
//	schemas/geocode.json
//	schemas/internal.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/rxcompare/price-service/internal/handlers"
	"github.com/rxcompare/price-service/internal/types"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

var groups = []SchemaGroup{
	{
		Name: "prices",
		Types: []any{
			handlers.PriceRequest{},
			types.ResolutionResult{},
			types.PharmacyOffer{},
			types.DrugRecord{},
			handlers.ErrorResponse{},
		},
		Output: "prices.json",
	},
	{
		Name:   "drugs",
		Types:  []any{handlers.SearchDrugsResponse{}, handlers.ErrorResponse{}},
		Output: "drugs.json",
	},
	{
		Name:   "geocode",
		Types:  []any{handlers.GeocodeResponse{}, handlers.ErrorResponse{}},
		Output: "geocode.json",
	},
	{
		Name:   "internal",
		Types:  []any{handlers.StatusResponse{}, handlers.HealthResponse{}},
		Output: "internal.json",
	},
}

func main() {
	outputDir := flag.String("out", "./schemas", "output directory")
	flag.Parse()

	if err := generate(*outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Println("Schema generation complete!")
}

func generate(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, group := range groups {
		outputPath := filepath.Join(outputDir, group.Output)
		if err := writeSchema(generateGroupSchema(group), outputPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", group.Output, err)
		}
		fmt.Printf("Generated %s\n", outputPath)
	}
	return nil
}

// generateGroupSchema merges the definitions of every type in the group.
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{}

	definitions := make(map[string]any)
	for _, t := range group.Types {
		schema := reflector.Reflect(t)
		for name, def := range schema.Definitions {
			definitions[name] = def
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://rxcompare.example.com/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
