package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/theater-rt/theater/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every actor process on record",
	Long:  `List every ActorProcessRecord persisted in the registry, across all runs.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing actor processes: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(recs)
	}

	return printRecordTable(recs)
}

func printRecordTable(recs []registry.ActorProcessRecord) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ACTOR ID\tNAME\tSTATUS\tPARENT")

	for _, rec := range recs {
		parent := "-"
		if rec.ParentID != nil {
			parent = rec.ParentID.String()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rec.ActorID, rec.ManifestName, rec.Status, parent,
		)
	}

	return nil
}
