// cmd/tools/form-catalog/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"loan-console/pkg/registry"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)

	exportPath := exportCmd.String("path", "configs/form-catalog.json", "Path to write the catalog to")
	version := exportCmd.String("version", "1.0.0", "Catalog version")
	validatePath := validateCmd.String("path", "configs/form-catalog.json", "Path to the stored catalog")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		cat, err := registry.Builtin(*version, time.Now())
		if err != nil {
			fmt.Printf("Error building catalog: %v\n", err)
			os.Exit(1)
		}
		if err := registry.Save(cat, *exportPath); err != nil {
			fmt.Printf("Error saving catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d forms to %s\n", len(cat.Forms), *exportPath)

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		stored, err := registry.LoadCatalog(*validatePath)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		current, err := registry.Builtin(stored.Version, time.Now())
		if err != nil {
			fmt.Printf("Error building catalog: %v\n", err)
			os.Exit(1)
		}
		drift := registry.Drift(stored, current)
		if len(drift) > 0 {
			fmt.Println("Catalog is out of date:")
			for _, d := range drift {
				fmt.Println("  " + d)
			}
			os.Exit(1)
		}
		fmt.Println("Catalog validation passed.")

	case "show":
		_ = showCmd.Parse(os.Args[2:])
		cat, err := registry.Builtin("current", time.Now())
		if err != nil {
			fmt.Printf("Error building catalog: %v\n", err)
			os.Exit(1)
		}
		for _, f := range cat.Forms {
			fmt.Printf("%s (%d steps)\n", f.ID, len(f.Steps))
			for _, s := range f.Steps {
				branch := ""
				if s.Branch != "" {
					branch = " [" + s.Branch + "]"
				}
				fmt.Printf("  %-14s %s%s: %d fields\n", s.ID, s.Title, branch, len(s.Fields))
			}
			for _, b := range f.Branches {
				fmt.Printf("  %s duration %d-%d %s\n", b.LoanType, b.DurationMin, b.DurationMax, b.Unit)
			}
		}

	default:
		help()
	}
}

func help() {
	fmt.Println(`
Usage: form-catalog <command> [flags]

Commands:
  export    Write the catalog of built-in forms to a JSON file
  validate  Check a stored catalog against the built-in forms
  show      Print a summary of the built-in forms

Examples:
  form-catalog export -path configs/form-catalog.json -version 1.1.0
  form-catalog validate -path configs/form-catalog.json
`)
}
