package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/theater-rt/theater/internal/registry"
	"github.com/theater-rt/theater/internal/theaterid"
)

var statusCmd = &cobra.Command{
	Use:   "status [actor-id]",
	Short: "Show one actor process's registry record",
	Long:  `Display the persisted ActorProcessRecord for a single actor, plus its direct children on record.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	actorID, err := theaterid.ParseActorId(args[0])
	if err != nil {
		return fmt.Errorf("invalid actor id %q: %w", args[0], err)
	}

	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(ctx, actorID)
	if err != nil {
		return fmt.Errorf("actor %s: %w", actorID, err)
	}

	children, err := store.ListChildren(ctx, actorID)
	if err != nil {
		return fmt.Errorf("listing children of %s: %w", actorID, err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(struct {
			registry.ActorProcessRecord
			Children []registry.ActorProcessRecord `json:"children"`
		}{ActorProcessRecord: rec, Children: children})
	}

	fmt.Printf("actor_id:      %s\n", rec.ActorID)
	fmt.Printf("manifest_name: %s\n", rec.ManifestName)
	fmt.Printf("component_ref: %s\n", rec.ComponentRef)
	fmt.Printf("status:        %s\n", rec.Status)
	if rec.ParentID != nil {
		fmt.Printf("parent_id:     %s\n", rec.ParentID)
	}
	fmt.Printf("children:      %d\n", len(children))
	for _, c := range children {
		fmt.Printf("  - %s (%s, %s)\n", c.ActorID, c.ManifestName, c.Status)
	}

	return nil
}
