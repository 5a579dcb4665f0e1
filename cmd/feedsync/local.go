package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pders01/feedsync/internal/config"
	"github.com/pders01/feedsync/internal/records"
	"github.com/pders01/feedsync/internal/storage"
	"github.com/spf13/cobra"
)

var postsLimit int

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage sources of the local backend",
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import <file.toml>",
	Short: "Import sources from a TOML file into the local backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openLocalStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if cfg.Notion.FeedsDB == "" {
			return fmt.Errorf("%w: notion.feeds_db is empty", records.ErrConfiguration)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening source file: %w", err)
		}
		defer f.Close()

		sources, err := storage.ReadSourceFile(f)
		if err != nil {
			return err
		}
		n, err := store.ImportSources(cfg.Notion.FeedsDB, sources)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Imported %d sources into %s", n, cfg.Notion.FeedsDB)))
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a source from the local backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openLocalStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteSource(cfg.Notion.FeedsDB, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Removed source %s from %s", args[0], cfg.Notion.FeedsDB)))
		return nil
	},
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect posts of the local backend",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored posts in creation order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, cfg, err := openLocalStore()
		if err != nil {
			return err
		}
		defer store.Close()

		posts, err := store.ListPosts(cfg.Notion.PostsDB, postsLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range posts {
			fmt.Fprintf(out, "%s  %s  %s\n",
				dimStyle.Render(p.Date.Format(time.DateTime)),
				titleStyle.Render(p.Name),
				dimStyle.Render(p.Origin+" "+p.URL))
		}
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d posts", len(posts))))
		return nil
	},
}

// openLocalStore opens the bolt file regardless of backend.kind.
func openLocalStore() (*storage.Store, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := storage.NewStore(cfg.Backend.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func init() {
	postsListCmd.Flags().IntVar(&postsLimit, "limit", 50, "Maximum number of posts to show (0 for all)")
	sourcesCmd.AddCommand(sourcesImportCmd, sourcesRemoveCmd)
	postsCmd.AddCommand(postsListCmd)
}
