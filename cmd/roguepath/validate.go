package main

import (
	"fmt"
	"os"

	"github.com/aretw0/roguepath/pkg/codec"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document...]",
	Short: "Check a catalog and path documents for consistency",
	Long: `Loads the room catalog and reports invalid rooms or pools. Each document
argument is then decoded against the catalog; structural violations and
rooms that cannot be resolved are reported.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog is valid: %d rooms\n", len(cat.Rooms.IDs()))

	c := codec.New(cat.Rooms)
	failed := 0
	for _, path := range args {
		doc, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		g, err := c.Decode(doc)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}
		if missing := g.Unresolved(); len(missing) > 0 {
			fmt.Fprintf(out, "%s: %d nodes without a room %v\n", path, len(missing), missing)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: ok (%d nodes)\n", path, g.Len())
	}
	if failed > 0 {
		return fmt.Errorf("validation failed: %d of %d documents invalid", failed, len(args))
	}
	return nil
}
