package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/frappe-till/internal/cart"
	"github.com/Veraticus/frappe-till/internal/cli"
	"github.com/Veraticus/frappe-till/internal/pos"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run an interactive checkout session",
		Long: `Reads scanner or keyboard input line by line. Each code is resolved and
added to the cart. Type "help" for cart commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			term, err := openTerminal(cmd.Context())
			if err != nil {
				return err
			}
			defer term.Close()

			session := term.newSession()
			out := cmd.OutOrStdout()

			handler := cli.NewInterruptHandler(out)
			ctx := handler.HandleInterrupts(cmd.Context(), session.Cart().Count)
			defer handler.Stop()

			err = runScanLoop(ctx, os.Stdin, out, session)
			if handler.WasInterrupted() {
				return nil
			}
			return err
		},
	}
}

// runScanLoop reads commands from in until quit, EOF or ctx ends.
func runScanLoop(ctx context.Context, in io.Reader, out io.Writer, session *pos.Session) error {
	reader := cli.NewNonBlockingReader(in)
	c := session.Cart()

	unsubscribe := c.Subscribe(func(ev cart.Event) {
		slog.Debug("cart changed", "event", ev.Kind, "item", ev.ItemID)
	})
	defer unsubscribe()

	fmt.Fprintln(out, cli.Heading("Checkout "+c.ID().String()[:8]))
	fmt.Fprintln(out, cli.MutedStyle.Render(`type "help" for commands`))

	for {
		fmt.Fprint(out, cli.Prompt("scan"))
		line, err := reader.ReadLine(ctx)
		if errors.Is(err, cli.ErrInputCancelled) {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderCart(c.Lines(), c.Total()))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		cmd, err := cli.ParseCommand(line)
		if err != nil {
			fmt.Fprintln(out, cli.Say(cli.ToneFault, err.Error()))
			continue
		}

		quit, err := applyCommand(ctx, out, session, cmd)
		if err != nil {
			fmt.Fprintln(out, cli.Say(cli.ToneFault, err.Error()))
		}
		if quit {
			fmt.Fprintln(out, cli.RenderCart(c.Lines(), c.Total()))
			return nil
		}
	}
}

// applyCommand executes one command. It reports true when the session
// should end.
func applyCommand(ctx context.Context, out io.Writer, session *pos.Session, cmd cli.Command) (bool, error) {
	c := session.Cart()

	switch cmd.Kind {
	case cli.CmdNone:
		return false, nil
	case cli.CmdQuit:
		return true, nil
	case cli.CmdHelp:
		fmt.Fprintln(out, cli.HelpText)
		return false, nil
	case cli.CmdTotal:
		fmt.Fprintln(out, cli.RenderCart(c.Lines(), c.Total()))
		return false, nil
	case cli.CmdClear:
		c.Clear()
		fmt.Fprintln(out, cli.Say(cli.ToneNote, "Cart cleared"))
		return false, nil
	case cli.CmdScan:
		result, err := session.Scan(ctx, cmd.Arg)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, cli.RenderScanResult(result))
		if result.Status == pos.StatusAdded {
			fmt.Fprintln(out, cli.TotalStyle.Render(fmt.Sprintf("total %.2f", c.Total())))
		}
		return false, nil
	}

	item, ok := session.ItemInCart(cmd.Arg)
	if !ok {
		return false, fmt.Errorf("%w: %s", cart.ErrLineNotFound, cmd.Arg)
	}

	var err error
	switch cmd.Kind {
	case cli.CmdIncrement:
		err = c.Increment(item)
	case cli.CmdDecrement:
		err = c.Decrement(item)
	case cli.CmdSetQuantity:
		err = c.SetQuantity(item, cmd.Quantity)
	case cli.CmdRemove:
		c.Remove(item)
	}
	if err != nil {
		return false, err
	}

	fmt.Fprintln(out, cli.RenderCart(c.Lines(), c.Total()))
	return false, nil
}
