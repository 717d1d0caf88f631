// filepath: internal/cli/rebuild.go
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gallerybase/internal/logging"
	"gallerybase/internal/shared"
)

// rebuildCmd represents the rebuild command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Library rebuild tools",
	Long:  `Normalize stored library data. Use subcommands 'galleries' or 'hashes'.`,
}

var rebuildGalleriesCmd = &cobra.Command{
	Use:   "galleries",
	Short: "Re-apply every valid gallery's fields through the modify path",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		return repo.RebuildGalleries(cmd.Context())
	},
}

var rebuildHashesCmd = &cobra.Command{
	Use:   "hashes",
	Short: "Generate missing content hashes for every gallery",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		galleries, err := repo.GetAllGalleries(cmd.Context())
		if err != nil {
			return err
		}
		for i := range galleries {
			g := &galleries[i]
			if _, err := repo.RebuildHashes(cmd.Context(), g); err != nil {
				if errors.Is(err, shared.ErrUnreadableChapter) {
					logging.Log.Warnf("Gallery %d has no readable pages, skipping", g.ID)
					continue
				}
				return fmt.Errorf("failed to rebuild hashes for gallery %d: %w", g.ID, err)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(rebuildCmd)
	rebuildCmd.AddCommand(rebuildGalleriesCmd)
	rebuildCmd.AddCommand(rebuildHashesCmd)
}
