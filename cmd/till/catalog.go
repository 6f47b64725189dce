package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/frappe-till/internal/catalog"
	"github.com/Veraticus/frappe-till/internal/cli"
	"github.com/Veraticus/frappe-till/internal/common"
	"github.com/Veraticus/frappe-till/internal/storage"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local catalog snapshot",
	}

	cmd.AddCommand(catalogRefreshCmd())
	cmd.AddCommand(catalogShowCmd())

	return cmd
}

func catalogRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the item catalog and save it as the offline snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client, err := initClient()
			if err != nil {
				return err
			}
			if client == nil {
				return common.NewUserError("catalog refresh needs a backend", errors.New("offline mode is set"))
			}
			defer client.Close()

			return refreshCatalog(ctx, cmd.OutOrStdout(), client, store)
		},
	}
}

// refreshCatalog fetches rows from src, saves them with a progress bar and
// reports index statistics.
func refreshCatalog(ctx context.Context, w io.Writer, src catalog.Source, store *storage.SQLiteStorage) error {
	fmt.Fprintln(w, cli.Say(cli.ToneNote, "Fetching catalog..."))
	rows, err := src.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	bar := cli.NewProgress(w, len(rows), "Saving snapshot")
	if err := store.SaveCatalogSnapshot(ctx, rows, bar.Set); err != nil {
		return fmt.Errorf("failed to save catalog snapshot: %w", err)
	}
	bar.Finish()

	stats := catalog.BuildIndex(rows).Stats()
	fmt.Fprintln(w, cli.Say(cli.ToneOK, fmt.Sprintf("Saved %d rows: %d items, %d codes, %d price overrides, %d skipped",
		len(rows), stats.Items, stats.Codes, stats.Prices, stats.Skipped)))
	return nil
}

func catalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the items in the offline snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return showCatalog(ctx, cmd.OutOrStdout(), store)
		},
	}
}

func showCatalog(ctx context.Context, w io.Writer, store *storage.SQLiteStorage) error {
	refresh, err := store.LatestRefresh(ctx)
	if errors.Is(err, catalog.ErrNoSnapshot) {
		fmt.Fprintln(w, cli.Say(cli.ToneWarn, "No snapshot yet. Run: till catalog refresh"))
		return nil
	}
	if err != nil {
		return err
	}

	rows, err := store.LoadCatalogSnapshot(ctx)
	if err != nil {
		return err
	}
	idx := catalog.BuildIndex(rows)

	fmt.Fprintln(w, cli.Heading(fmt.Sprintf("Catalog snapshot from %s", refresh.FetchedAt.Local().Format("2006-01-02 15:04"))))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tUOM\tPRICE")
	for _, item := range idx.Items() {
		price := item.DefaultPrice()
		if p, ok := idx.OverridePrice(item.ID); ok {
			price = p
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", item.ID, item.Name(), item.UnitOfMeasure, price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := idx.Stats()
	fmt.Fprintln(w, cli.MutedStyle.Render(fmt.Sprintf("%d items, %d codes, %d skipped", stats.Items, stats.Codes, stats.Skipped)))
	return nil
}
