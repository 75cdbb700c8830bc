package main

import (
	"fmt"
	"os"

	"github.com/aretw0/roguepath/internal/presentation/graph"
	"github.com/aretw0/roguepath/pkg/codec"
	"github.com/aretw0/roguepath/pkg/ports"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <document>",
	Short: "Export a path graph visualization",
	Long: `Decodes a path graph document and outputs a Mermaid diagram (graph TD).
With --catalog, unresolved rooms are resolved against it first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var rooms ports.RoomCatalog
		if path, _ := cmd.Flags().GetString("catalog"); path != "" {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			rooms = cat.Rooms
		}

		g, err := codec.New(rooms).Decode(doc)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
