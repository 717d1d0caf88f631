// filepath: internal/cli/stats.go
package cli

import (
	"github.com/spf13/cobra"
)

// statsCmd prints a short summary of the library store.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print library statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx := cmd.Context()
		galleries, err := repo.GalleryCount(ctx)
		if err != nil {
			return err
		}
		tags, err := repo.GetAllTags(ctx)
		if err != nil {
			return err
		}
		namespaces, err := repo.GetAllNamespaces(ctx)
		if err != nil {
			return err
		}
		favorites, err := repo.GetFavoriteGalleries(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("galleries:  %d\n", galleries)
		cmd.Printf("favorites:  %d\n", len(favorites))
		cmd.Printf("tags:       %d\n", len(tags))
		cmd.Printf("namespaces: %d\n", len(namespaces))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
