package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derek2403/token2049/engine"
)

var chatWallet string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive chat. Prepared actions are confirmed inline.

Commands:
  /requests        list payment requests addressed to the wallet
  /pay <id>        pay a payment request
  /dismiss <id>    dismiss a payment request
  /quit            leave`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatWallet, "wallet", "w", "", "connected wallet (defaults to the signing key's address)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	wallet := chatWallet
	if wallet == "" && a.signer != nil {
		wallet = a.signer.Address()
	}
	sess, err := a.engine.CreateSession(wallet)
	if err != nil {
		return err
	}

	c := &console{
		app:     a,
		session: sess.ID,
		wallet:  wallet,
		in:      bufio.NewScanner(cmd.InOrStdin()),
		out:     cmd.OutOrStdout(),
	}
	return c.run(ctx)
}

// console is a line-oriented chat against a local engine.
type console struct {
	app     *app
	session string
	wallet  string
	in      *bufio.Scanner
	out     io.Writer
}

func (c *console) run(ctx context.Context) error {
	if c.wallet == "" {
		fmt.Fprintln(c.out, "No wallet connected. Actions can be prepared but not sent.")
	} else {
		fmt.Fprintf(c.out, "Connected as %s\n", c.wallet)
	}

	for {
		line, ok := c.prompt("> ")
		if !ok {
			return c.in.Err()
		}
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/requests":
			c.listRequests(ctx)
		case strings.HasPrefix(line, "/pay "):
			out, err := c.app.engine.PayRequest(ctx, c.session, strings.TrimSpace(strings.TrimPrefix(line, "/pay ")))
			c.print(out, err)
		case strings.HasPrefix(line, "/dismiss "):
			out, err := c.app.engine.DismissRequest(ctx, c.session, strings.TrimSpace(strings.TrimPrefix(line, "/dismiss ")))
			c.print(out, err)
		default:
			out, err := c.app.engine.Handle(ctx, c.session, line, "")
			c.print(out, err)
			if err == nil && out.Type == engine.OutputConfirmationNeeded {
				c.confirm(ctx, out)
			}
		}
	}
}

func (c *console) prompt(p string) (string, bool) {
	fmt.Fprint(c.out, p)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *console) confirm(ctx context.Context, out *engine.Output) {
	fmt.Fprintf(c.out, "  %s\n", out.PendingAction.Summary)
	if out.Split != nil {
		for addr, amount := range out.Split.Amounts {
			fmt.Fprintf(c.out, "    %s owes %s\n", addr, amount)
		}
	}
	answer, _ := c.prompt("Confirm? [y/N] ")
	id := out.PendingAction.ID
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		res, err := c.app.engine.Confirm(ctx, c.session, id)
		c.print(res, err)
		return
	}
	res, err := c.app.engine.Cancel(ctx, c.session, id)
	c.print(res, err)
}

func (c *console) print(out *engine.Output, err error) {
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, out.Text)
	if out.Result != nil && out.Result.ExplorerURL != "" {
		fmt.Fprintf(c.out, "  %s\n", out.Result.ExplorerURL)
	}
	if len(out.Notifications) > 0 {
		fmt.Fprintf(c.out, "  notifications: %s\n", strings.Join(out.Notifications, ", "))
	}
	if out.Warning != "" {
		fmt.Fprintf(c.out, "  warning: %s\n", out.Warning)
	}
}

func (c *console) listRequests(ctx context.Context) {
	if c.wallet == "" {
		fmt.Fprintln(c.out, "No wallet connected.")
		return
	}
	recs, err := c.app.relay.FetchPending(ctx, c.wallet)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	if len(recs) == 0 {
		fmt.Fprintln(c.out, "No pending payment requests.")
		return
	}
	for _, rec := range recs {
		fmt.Fprintln(c.out, formatRequest(rec))
	}
}
