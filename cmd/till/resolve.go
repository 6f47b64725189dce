package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/frappe-till/internal/cli"
	"github.com/Veraticus/frappe-till/internal/pos"
)

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <code>",
		Short: "Look up a scanned code without adding it to a cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			term, err := openTerminal(ctx)
			if err != nil {
				return err
			}
			defer term.Close()

			return resolveCode(ctx, cmd.OutOrStdout(), term.newSession(), args[0])
		},
	}
}

func resolveCode(ctx context.Context, w io.Writer, session *pos.Session, code string) error {
	result, err := session.ResolveAndQuantify(ctx, code)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, cli.RenderScanResult(result))
	if result.Status == pos.StatusResolved {
		fmt.Fprintln(w, cli.MutedStyle.Render(fmt.Sprintf("item %s via %s", result.Item.ID, result.Source)))
	}
	return nil
}
